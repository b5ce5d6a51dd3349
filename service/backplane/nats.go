package backplane

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"GateLink/logger"
)

const natsSubject = "gl.bus"

// NatsBus is the alternative backplane, selected with GL_BACKPLANE=nats.
// Core NATS only: the coordinator promises at-most-once delivery, so
// JetStream persistence buys nothing here.
type NatsBus struct {
	nc *nats.Conn
}

type NatsConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

func NewNatsBus(cfg NatsConfig) (*NatsBus, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[backplane] nats disconnected, local-only fan-out: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("[backplane] nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &NatsBus{nc: nc}, nil
}

func (b *NatsBus) Publish(_ context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal bus envelope")
	}
	if err := b.nc.Publish(natsSubject, raw); err != nil {
		logger.Warnf("[backplane] nats publish failed, local-only fan-out: %v", err)
		return errors.Wrap(err, "nats publish")
	}
	return nil
}

func (b *NatsBus) Subscribe(ctx context.Context, fn Handler) {
	sub, err := b.nc.Subscribe(natsSubject, func(m *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			logger.Warnf("[backplane] drop malformed bus message: %v", err)
			return
		}
		fn(env)
	})
	if err != nil {
		logger.Errorf("[backplane] nats subscribe failed: %v", err)
		return
	}
	_ = sub.SetPendingLimits(1_000_000, 64*1024*1024)

	<-ctx.Done()
	_ = sub.Unsubscribe()
}

func (b *NatsBus) Close() error {
	b.nc.Close()
	return nil
}
