package gateway

import (
	"testing"

	"GateLink/service/backplane"
)

type recordingHandler struct {
	event EventType
	got   []*Frame
	err   error
}

func (h *recordingHandler) Type() EventType { return h.event }

func (h *recordingHandler) Handle(_ *Context, f *Frame, _ *WsConn) error {
	h.got = append(h.got, f)
	return h.err
}

func TestDispatchRoutesByEvent(t *testing.T) {
	s := newTestServer("n1", backplane.Noop{})
	msg := &recordingHandler{event: EvtMessageSend}
	typ := &recordingHandler{event: EvtTypingStart}
	s.Disp().Register(msg)
	s.Disp().Register(typ)

	conn := newTestConn("c1", "alice")
	f := &Frame{Event: EvtMessageSend, Data: map[string]any{"roomId": "chat:42"}}
	if err := s.Disp().Dispatch(&Context{S: s}, f, conn); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(msg.got) != 1 || len(typ.got) != 0 {
		t.Fatalf("routing hit msg=%d typ=%d, want 1/0", len(msg.got), len(typ.got))
	}
}

func TestDispatchUnknownEventIgnored(t *testing.T) {
	s := newTestServer("n1", backplane.Noop{})
	conn := newTestConn("c1", "alice")

	f := &Frame{Event: "no:such:event"}
	if err := s.Disp().Dispatch(&Context{S: s}, f, conn); err != nil {
		t.Fatalf("unknown event must not be an error, got %v", err)
	}
}

func TestGetHandler(t *testing.T) {
	d := NewDispatcher()
	h := &recordingHandler{event: EvtJoinRoom}
	d.Register(h)

	if got := d.GetHandler(EvtJoinRoom); got != h {
		t.Fatalf("GetHandler returned %v", got)
	}
	if got := d.GetHandler(EvtLeaveRoom); got != nil {
		t.Fatalf("GetHandler for unregistered event returned %v", got)
	}
}
