package backplane

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"GateLink/logger"
)

// single channel carrying room-tagged envelopes keeps subscription
// management trivial and mirrors the nats implementation
const redisChannel = "gl:bus"

// RedisBus is the default backplane: plain redis pub/sub.
type RedisBus struct {
	rdb *goredis.Client
}

func NewRedisBus(rdb *goredis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal bus envelope")
	}
	if err := b.rdb.Publish(ctx, redisChannel, raw).Err(); err != nil {
		// degraded mode: local fan-out already happened at the call site
		logger.Warnf("[backplane] redis publish failed, local-only fan-out: %v", err)
		return errors.Wrap(err, "redis publish")
	}
	return nil
}

// Subscribe consumes the bus until ctx is done. The go-redis PubSub
// reconnects on its own; the outer loop restarts the subscription with
// backoff when it dies entirely.
func (b *RedisBus) Subscribe(ctx context.Context, fn Handler) {
	backoff := time.Second
	for {
		if err := b.consume(ctx, fn); err != nil {
			logger.Warnf("[backplane] redis subscription lost, retry in %v: %v", backoff, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (b *RedisBus) consume(ctx context.Context, fn Handler) error {
	pubsub := b.rdb.Subscribe(ctx, redisChannel)
	defer func() { _ = pubsub.Close() }()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warnf("[backplane] drop malformed bus message: %v", err)
				continue
			}
			fn(env)
		}
	}
}

func (b *RedisBus) Close() error { return nil }
