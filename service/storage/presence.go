package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	redisx "GateLink/service/storage/redis"
)

// Presence mirror. The authoritative online state lives in each gateway's
// connection manager; these keys exist so other services can look a user up
// without asking every node.
// key: gl:presence:<user>, value: node id, TTL bounds staleness.

func presenceKey(user string) string { return "gl:presence:" + user }

// Mirror writes presence keys for one gateway node.
type Mirror struct {
	nodeID string
	ttl    time.Duration
}

func NewMirror(nodeID string, ttl time.Duration) *Mirror {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Mirror{nodeID: nodeID, ttl: ttl}
}

func (m *Mirror) Online(ctx context.Context, user string) error {
	return errors.Wrap(
		redisx.GetRedis().Set(ctx, presenceKey(user), m.nodeID, m.ttl).Err(),
		"presence online")
}

func (m *Mirror) Offline(ctx context.Context, user string) error {
	return errors.Wrap(
		redisx.GetRedis().Del(ctx, presenceKey(user)).Err(),
		"presence offline")
}

// PresenceLookup reports whether the user is online anywhere and on which node.
func PresenceLookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	val, err := redisx.GetRedis().Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "presence lookup")
	}
	return val, true, nil
}
