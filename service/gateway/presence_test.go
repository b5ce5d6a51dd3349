package gateway

import (
	"fmt"
	"sync"
	"testing"

	"GateLink/service/backplane"
)

func TestPresenceEmitToAudience(t *testing.T) {
	s := newTestServer("n1", backplane.Noop{}, func(o *Options) {
		o.Audience = staticAudience{contacts: []string{"bob", "carol"}}
	})

	bob := newTestConn("c-bob", "bob")
	carol := newTestConn("c-carol", "carol")
	dave := newTestConn("c-dave", "dave")
	for _, c := range []*WsConn{bob, carol, dave} {
		s.ConnMgr().Register(c)
		s.ConnMgr().JoinRoom(c.ConnID, UserRoom(c.UserID))
	}

	s.Presence().UserOnline("alice")

	for _, c := range []*WsConn{bob, carol} {
		f := recvFrame(t, c)
		if f.Event != EvtPresenceChanged {
			t.Fatalf("%s got event %q", c.UserID, f.Event)
		}
		if f.Data["userId"] != "alice" || f.Data["status"] != "online" {
			t.Fatalf("%s got data %v", c.UserID, f.Data)
		}
	}
	// dave is not in alice's audience
	expectSilence(t, dave)
}

func TestPresenceStatusChanged(t *testing.T) {
	s := newTestServer("n1", backplane.Noop{}, func(o *Options) {
		o.Audience = staticAudience{contacts: []string{"bob"}}
	})
	bob := newTestConn("c-bob", "bob")
	s.ConnMgr().Register(bob)
	s.ConnMgr().JoinRoom("c-bob", UserRoom("bob"))

	s.Presence().StatusChanged("alice", "away")

	f := recvFrame(t, bob)
	if f.Data["status"] != "away" {
		t.Fatalf("status = %v", f.Data["status"])
	}
}

func TestPresenceMirrorTransitions(t *testing.T) {
	mirror := &countingMirror{}
	s := newTestServer("n1", backplane.Noop{}, func(o *Options) {
		o.Mirror = mirror
	})

	s.Presence().UserOnline("alice")
	s.Presence().UserOffline("alice")

	if on, off := mirror.counts(); on != 1 || off != 1 {
		t.Fatalf("mirror calls = (%d, %d), want (1, 1)", on, off)
	}
	if mirror.lastUser != "alice" {
		t.Fatalf("mirror user = %q", mirror.lastUser)
	}
}

// Concurrent connects and disconnects for one user must produce exactly one
// Offline->Online and one Online->Offline, no matter the interleaving. The
// transition decision is made inside the manager's critical section; this
// drives the same sequence the connection lifecycle runs.
func TestPresenceExactlyOnceUnderConcurrency(t *testing.T) {
	mirror := &countingMirror{}
	s := newTestServer("n1", backplane.Noop{}, func(o *Options) {
		o.Mirror = mirror
	})

	const devices = 32
	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newTestConn(fmt.Sprintf("c%d", i), "alice")
			if s.ConnMgr().Register(c) {
				s.Presence().UserOnline(c.UserID)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if c, last := s.ConnMgr().Deregister(fmt.Sprintf("c%d", i)); c != nil && last {
				s.Presence().UserOffline(c.UserID)
			}
		}(i)
	}
	wg.Wait()

	if on, off := mirror.counts(); on != 1 || off != 1 {
		t.Fatalf("transitions = (%d online, %d offline), want exactly one of each", on, off)
	}
}
