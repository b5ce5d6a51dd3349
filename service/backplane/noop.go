package backplane

import "context"

// Noop is the single-process backplane: publishes go nowhere and no remote
// envelopes ever arrive. Used when GL_BACKPLANE=none and as the fallback
// when the configured broker cannot be reached at boot.
type Noop struct{}

func (Noop) Publish(context.Context, Envelope) error { return nil }

func (Noop) Subscribe(ctx context.Context, _ Handler) { <-ctx.Done() }

func (Noop) Close() error { return nil }
