package ws

import (
	"fmt"
	"sync"
	"testing"
)

// fakeConn пишет события в память.
type fakeConn struct {
	mu     sync.Mutex
	id     string
	userID string
	events []Event
}

var fakeSeq int

func newFakeConn(userID string) *fakeConn {
	fakeSeq++
	return &fakeConn{id: fmt.Sprintf("conn-%d", fakeSeq), userID: userID}
}

func (c *fakeConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() error   { return nil }
func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) count(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a, b, outsider := newFakeConn("alice"), newFakeConn("bob"), newFakeConn("carol")

	hub.Join("room", a)
	hub.Join("room", b)

	hub.Broadcast("room", Event{Type: "ping"})

	if a.count("ping") != 1 || b.count("ping") != 1 {
		t.Fatal("members must receive broadcast")
	}
	if outsider.count("ping") != 0 {
		t.Fatal("outsider must not receive broadcast")
	}
}

func TestHubBroadcastExcept(t *testing.T) {
	hub := NewHub()
	a, b := newFakeConn("alice"), newFakeConn("bob")
	hub.Join("room", a)
	hub.Join("room", b)

	hub.BroadcastExcept("room", a, Event{Type: "typing"})

	if a.count("typing") != 0 {
		t.Fatal("sender must not get its own echo")
	}
	if b.count("typing") != 1 {
		t.Fatal("peer must receive the event")
	}
}

func TestHubLeave(t *testing.T) {
	hub := NewHub()
	a, b := newFakeConn("alice"), newFakeConn("bob")
	hub.Join("room", a)
	hub.Join("room", b)

	hub.Leave("room", b)
	hub.Broadcast("room", Event{Type: "ping"})

	if b.count("ping") != 0 {
		t.Fatal("left connection must not receive events")
	}
	if a.count("ping") != 1 {
		t.Fatal("remaining connection must still receive")
	}
}

func TestHubLeaveAll(t *testing.T) {
	hub := NewHub()
	a := newFakeConn("alice")
	hub.Join("r1", a)
	hub.Join("r2", a)

	hub.LeaveAll(a)

	hub.Broadcast("r1", Event{Type: "ping"})
	hub.Broadcast("r2", Event{Type: "ping"})
	if a.count("ping") != 0 {
		t.Fatal("connection must be out of every room")
	}
	if len(hub.rooms) != 0 || len(hub.joined) != 0 {
		t.Fatalf("hub must be empty: rooms=%d joined=%d", len(hub.rooms), len(hub.joined))
	}
}

func TestHubDropRoom(t *testing.T) {
	hub := NewHub()
	a, b := newFakeConn("alice"), newFakeConn("bob")
	hub.Join("doomed", a)
	hub.Join("doomed", b)
	hub.Join("other", a)

	hub.DropRoom("doomed")

	hub.Broadcast("doomed", Event{Type: "ping"})
	if a.count("ping") != 0 || b.count("ping") != 0 {
		t.Fatal("dropped room must be silent")
	}

	// членство в других комнатах переживает роспуск
	hub.Broadcast("other", Event{Type: "ping"})
	if a.count("ping") != 1 {
		t.Fatal("other room must keep working")
	}
}

func TestHubBroadcastEmptyRoom(t *testing.T) {
	hub := NewHub()
	// не должно паниковать
	hub.Broadcast("nobody", Event{Type: "ping"})
}
