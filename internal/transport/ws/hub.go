package ws

import (
	"sync"
)

type Conn interface {
	Send(ev Event) error
	Close() error
	ID() string
	UserID() string
}

// Hub держит именованные комнаты (scope -> множество соединений).
// Scope-ключи: room key диалога, "group:<id>". Рассылка best-effort:
// пустая комната — событие просто теряется, источник истины — база.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{}
	joined map[Conn]map[string]struct{} // обратный индекс для LeaveAll
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]struct{}),
		joined: make(map[Conn]map[string]struct{}),
	}
}

func (h *Hub) Join(room string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[room]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[room] = rs
	}
	rs[c] = struct{}{}

	js, ok := h.joined[c]
	if !ok {
		js = make(map[string]struct{})
		h.joined[c] = js
	}
	js[room] = struct{}{}
}

func (h *Hub) Leave(room string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(room, c)
}

// LeaveAll убирает соединение из всех комнат; вызывается при разрыве.
func (h *Hub) LeaveAll(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.joined[c] {
		h.leaveLocked(room, c)
	}
}

func (h *Hub) leaveLocked(room string, c Conn) {
	if rs, ok := h.rooms[room]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, room)
		}
	}
	if js, ok := h.joined[c]; ok {
		delete(js, room)
		if len(js) == 0 {
			delete(h.joined, c)
		}
	}
}

// DropRoom распускает комнату целиком (удаление группы).
func (h *Hub) DropRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[room] {
		if js, ok := h.joined[c]; ok {
			delete(js, room)
			if len(js) == 0 {
				delete(h.joined, c)
			}
		}
	}
	delete(h.rooms, room)
}

func (h *Hub) Broadcast(room string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[room]; ok {
		for c := range rs {
			_ = c.Send(ev) // best-effort
		}
	}
}

// BroadcastExcept — всем в комнате, кроме одного соединения (эхо typing не нужно).
func (h *Hub) BroadcastExcept(room string, except Conn, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[room]; ok {
		for c := range rs {
			if c == except {
				continue
			}
			_ = c.Send(ev)
		}
	}
}
