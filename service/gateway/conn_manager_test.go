package gateway

import (
	"fmt"
	"sync"
	"testing"
)

func newTestConn(connID, userID string) *WsConn {
	return NewWsConn(connID, userID, userID+"@example.com", "user", nil, 8)
}

func TestRegisterFirstSocket(t *testing.T) {
	m := NewConnManager()

	if first := m.Register(newTestConn("c1", "alice")); !first {
		t.Fatalf("first socket: got first=false")
	}
	if first := m.Register(newTestConn("c2", "alice")); first {
		t.Fatalf("second socket: got first=true")
	}

	conns, users, _ := m.Counts()
	if conns != 2 || users != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", conns, users)
	}
}

func TestDeregisterLastSocket(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))
	m.Register(newTestConn("c2", "alice"))

	c, last := m.Deregister("c1")
	if c == nil || last {
		t.Fatalf("deregister c1: got (nil=%v, last=%v), want live conn and last=false", c == nil, last)
	}
	c, last = m.Deregister("c2")
	if c == nil || !last {
		t.Fatalf("deregister c2: got (nil=%v, last=%v), want live conn and last=true", c == nil, last)
	}
}

func TestDeregisterIdempotent(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))

	if c, last := m.Deregister("c1"); c == nil || !last {
		t.Fatalf("first deregister: got (nil=%v, last=%v)", c == nil, last)
	}
	if c, last := m.Deregister("c1"); c != nil || last {
		t.Fatalf("second deregister must be a no-op, got (conn=%v, last=%v)", c, last)
	}
	if c, last := m.Deregister("never-registered"); c != nil || last {
		t.Fatalf("unknown conn must be a no-op, got (conn=%v, last=%v)", c, last)
	}
}

func TestDeregisterRemovesFromRooms(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))
	m.JoinRoom("c1", "site:berlin")
	m.JoinRoom("c1", "chat:42")

	m.Deregister("c1")

	if got := m.RoomConns("site:berlin", ""); len(got) != 0 {
		t.Fatalf("site room still has %d subscribers after deregister", len(got))
	}
	if got := m.RoomConns("chat:42", ""); len(got) != 0 {
		t.Fatalf("chat room still has %d subscribers after deregister", len(got))
	}
	if _, _, rooms := m.Counts(); rooms != 0 {
		t.Fatalf("empty rooms must be dropped, got %d", rooms)
	}
}

func TestJoinRoomRepeatIsNoop(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))

	if already, ok := m.JoinRoom("c1", "chat:42"); already || !ok {
		t.Fatalf("first join: got (already=%v, ok=%v)", already, ok)
	}
	if already, ok := m.JoinRoom("c1", "chat:42"); !already || !ok {
		t.Fatalf("repeat join: got (already=%v, ok=%v), want no-op success", already, ok)
	}
	if got := m.RoomConns("chat:42", ""); len(got) != 1 {
		t.Fatalf("room has %d subscribers, want 1", len(got))
	}
}

func TestJoinRoomUnknownConn(t *testing.T) {
	m := NewConnManager()
	if _, ok := m.JoinRoom("ghost", "chat:42"); ok {
		t.Fatalf("join from unregistered conn must fail")
	}
}

func TestLeaveRoomNeverJoined(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))

	m.LeaveRoom("c1", "chat:42") // must not panic or create state
	if _, _, rooms := m.Counts(); rooms != 0 {
		t.Fatalf("leave created room state: %d rooms", rooms)
	}
}

func TestRoomConnsExcludesSender(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))
	m.Register(newTestConn("c2", "bob"))
	m.JoinRoom("c1", "chat:42")
	m.JoinRoom("c2", "chat:42")

	got := m.RoomConns("chat:42", "c1")
	if len(got) != 1 || got[0].ConnID != "c2" {
		t.Fatalf("RoomConns with except=c1 returned %d conns", len(got))
	}
}

func TestConcurrentRegisterDeregister(t *testing.T) {
	m := NewConnManager()

	const sockets = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0

	for i := 0; i < sockets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if m.Register(newTestConn(fmt.Sprintf("c%d", i), "alice")) {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if firsts != 1 {
		t.Fatalf("concurrent registers observed %d first-transitions, want exactly 1", firsts)
	}

	lasts := 0
	for i := 0; i < sockets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, last := m.Deregister(fmt.Sprintf("c%d", i)); last {
				mu.Lock()
				lasts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if lasts != 1 {
		t.Fatalf("concurrent deregisters observed %d last-transitions, want exactly 1", lasts)
	}

	conns, users, _ := m.Counts()
	if conns != 0 || users != 0 {
		t.Fatalf("counts after teardown = (%d, %d), want (0, 0)", conns, users)
	}
}

func TestConcurrentJoinAndDisconnect(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			m.JoinRoom("c1", fmt.Sprintf("chat:%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		m.Deregister("c1")
	}()
	wg.Wait()
	m.Deregister("c1")

	// whatever interleaving happened, nothing may reference the socket
	if _, _, rooms := m.Counts(); rooms != 0 {
		t.Fatalf("%d rooms still reference a deregistered socket", rooms)
	}
}

func TestPresenceAttribute(t *testing.T) {
	m := NewConnManager()
	m.Register(newTestConn("c1", "alice"))

	if got, ok := m.Presence("c1"); !ok || got != "online" {
		t.Fatalf("initial presence = (%q, %v), want online", got, ok)
	}
	if !m.SetPresence("c1", "away") {
		t.Fatalf("SetPresence failed for live conn")
	}
	if got, _ := m.Presence("c1"); got != "away" {
		t.Fatalf("presence = %q, want away", got)
	}
	if m.SetPresence("ghost", "busy") {
		t.Fatalf("SetPresence must fail for unknown conn")
	}
}
