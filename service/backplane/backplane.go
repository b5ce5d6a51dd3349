package backplane

import (
	"context"
	"encoding/json"
)

// Scope of a bus envelope.
const (
	ScopeRoom = "room"
	ScopeAll  = "all"
)

// Envelope is what crosses the process boundary. Payload is the already
// encoded client frame; intermediate nodes never re-interpret it.
type Envelope struct {
	Origin  string          `json:"origin"` // publishing node id, used to skip self-delivery
	Scope   string          `json:"scope"`  // room | all
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives envelopes published by any node (including the local one;
// callers filter on Origin).
type Handler func(env Envelope)

// Backplane bridges broadcasts across gateway processes. It is the only
// component allowed to cross the process boundary; everything else talks to
// it through Publish and the subscription handler.
//
// Publish must not block the caller on broker trouble: implementations log
// and drop, degrading to single-process fan-out.
type Backplane interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, fn Handler)
	Close() error
}
