package ws

import (
	"sort"
	"sync"
)

// Presence — кто сейчас на связи. Пользователь онлайн, пока у него есть хотя бы
// одно живое соединение (multi-device). Эфемерно: при рестарте процесса
// сбрасывается и строится заново.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{} // userID -> множество соединений
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]map[Conn]struct{})}
}

// Register добавляет соединение; true, если это первое соединение пользователя.
func (p *Presence) Register(c Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, ok := p.conns[c.UserID()]
	if !ok {
		cs = make(map[Conn]struct{})
		p.conns[c.UserID()] = cs
	}
	cs[c] = struct{}{}
	return len(cs) == 1
}

// Unregister убирает конкретное соединение; true, если пользователь ушёл в
// оффлайн (других устройств не осталось).
func (p *Presence) Unregister(c Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cs, ok := p.conns[c.UserID()]
	if !ok {
		return false
	}
	delete(cs, c)
	if len(cs) == 0 {
		delete(p.conns, c.UserID())
		return true
	}
	return false
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.conns[userID]) > 0
}

func (p *Presence) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.conns))
	for id := range p.conns {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// ConnsOf — снимок живых соединений пользователя.
func (p *Presence) ConnsOf(userID string) []Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]Conn, 0, len(p.conns[userID]))
	for c := range p.conns[userID] {
		conns = append(conns, c)
	}
	return conns
}

// SendToUser — на все устройства пользователя (user scope).
func (p *Presence) SendToUser(userID string, ev Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for c := range p.conns[userID] {
		_ = c.Send(ev) // best-effort
	}
}

// BroadcastOnline рассылает актуальный список онлайна всем соединениям.
func (p *Presence) BroadcastOnline() {
	users := p.OnlineUsers()
	ev := Event{Type: TypeOnlineUsers, Payload: OnlineUsersPayload{Users: users}}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, cs := range p.conns {
		for c := range cs {
			_ = c.Send(ev)
		}
	}
}
