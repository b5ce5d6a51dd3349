package gateway

import (
	"GateLink/logger"
)

// Handler processes one inbound event type.
type Handler interface {
	Type() EventType
	Handle(ctx *Context, f *Frame, conn *WsConn) error
}

// Context threads the server through handlers.
type Context struct {
	S *Server
}

type Dispatcher struct {
	handlers map[EventType]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventType]Handler)}
}

// Register wires a handler; registration happens once at boot, before any
// connection is accepted, so the map needs no lock.
func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

// Dispatch routes a frame to its handler. Unknown event types are logged
// and ignored; they are not fatal to the connection.
func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, conn *WsConn) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		logger.Infof("[dispatch] no handler for event=%s conn=%s", f.Event, conn.ConnID)
		return nil
	}
	return h.Handle(ctx, f, conn)
}

func (d *Dispatcher) GetHandler(t EventType) Handler {
	h, ok := d.handlers[t]
	if !ok {
		return nil
	}
	return h
}
