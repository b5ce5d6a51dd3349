package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"GateLink/service/backplane"
)

// memBus is an in-process backplane shared by the test servers. Publish
// delivers synchronously to every attached handler, the publisher's own
// included, so the origin-skip dedup is exercised.
type memBus struct {
	mu   sync.Mutex
	subs []backplane.Handler
}

func (b *memBus) attach(fn backplane.Handler) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

func (b *memBus) Publish(_ context.Context, env backplane.Envelope) error {
	b.mu.Lock()
	subs := append([]backplane.Handler(nil), b.subs...)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(env)
	}
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, fn backplane.Handler) {
	b.attach(fn)
	<-ctx.Done()
}

func (b *memBus) Close() error { return nil }

type staticAudience struct {
	contacts []string
}

func (a staticAudience) PresenceAudience(context.Context, string) ([]string, error) {
	return a.contacts, nil
}

// countingMirror records online/offline calls.
type countingMirror struct {
	mu       sync.Mutex
	online   int
	offline  int
	lastUser string
}

func (m *countingMirror) Online(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online++
	m.lastUser = user
	return nil
}

func (m *countingMirror) Offline(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline++
	m.lastUser = user
	return nil
}

func (m *countingMirror) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online, m.offline
}

func newTestServer(nodeID string, bus backplane.Backplane, opts ...func(*Options)) *Server {
	o := Options{
		NodeID: nodeID,
		Bus:    bus,
	}
	for _, fn := range opts {
		fn(&o)
	}
	s := NewServer(o)
	if mb, ok := bus.(*memBus); ok {
		mb.attach(s.onBusMessage)
	}
	return s
}

// recvFrame waits for the next frame on a connection's send queue.
func recvFrame(t *testing.T, c *WsConn) *Frame {
	t.Helper()
	select {
	case raw := <-c.SendChan:
		f, err := ParseFrame(raw)
		if err != nil {
			t.Fatalf("received unparseable frame %s: %v", raw, err)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for frame on conn=%s", c.ConnID)
	}
	return nil
}

// expectSilence asserts no frame arrives within the grace window.
func expectSilence(t *testing.T, c *WsConn) {
	t.Helper()
	select {
	case raw := <-c.SendChan:
		t.Fatalf("unexpected frame on conn=%s: %s", c.ConnID, raw)
	case <-time.After(100 * time.Millisecond):
	}
}
