package gateway

import (
	"context"
	"time"

	"GateLink/logger"
)

// AudienceResolver is the external collaborator that decides who hears
// about a user's presence transitions.
type AudienceResolver interface {
	PresenceAudience(ctx context.Context, userID string) ([]string, error)
}

// PresenceMirror reflects online state into shared storage so services on
// other nodes can look it up. Optional; nil disables mirroring.
type PresenceMirror interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

const resolveTimeout = 2 * time.Second

// PresenceTracker turns session-index transitions into presence:changed
// events. The Offline->Online and Online->Offline decisions themselves are
// made inside the ConnManager's critical section (Register/Deregister return
// them), which is what makes each transition fire exactly once no matter how
// many sockets connect or disconnect simultaneously.
type PresenceTracker struct {
	s        *Server
	resolver AudienceResolver
	mirror   PresenceMirror
}

func newPresenceTracker(s *Server, resolver AudienceResolver, mirror PresenceMirror) *PresenceTracker {
	return &PresenceTracker{s: s, resolver: resolver, mirror: mirror}
}

// UserOnline fires on a user's first live socket.
func (t *PresenceTracker) UserOnline(userID string) {
	if t.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		if err := t.mirror.Online(ctx, userID); err != nil {
			logger.Warnf("[presence] mirror online failed user=%s: %v", userID, err)
		}
		cancel()
	}
	t.emit(userID, "online")
}

// UserOffline fires when the user's socket set empties.
func (t *PresenceTracker) UserOffline(userID string) {
	if t.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		if err := t.mirror.Offline(ctx, userID); err != nil {
			logger.Warnf("[presence] mirror offline failed user=%s: %v", userID, err)
		}
		cancel()
	}
	t.emit(userID, "offline")
}

// StatusChanged handles an explicit presence:update (away, busy, ...). The
// session index is untouched; only the audience is notified.
func (t *PresenceTracker) StatusChanged(userID, status string) {
	t.emit(userID, status)
}

func (t *PresenceTracker) emit(userID, status string) {
	ev := PresenceEvent{UserID: userID, Status: status, Timestamp: NowISO()}
	payload, err := EncodeFrame(EvtPresenceChanged, ev)
	if err != nil {
		logger.Errorf("[presence] encode failed user=%s: %v", userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	audience, err := t.resolver.PresenceAudience(ctx, userID)
	cancel()
	if err != nil {
		logger.Warnf("[presence] audience lookup failed user=%s: %v", userID, err)
		return
	}

	// contacts listen on their personal rooms, here and on every other node
	for _, contact := range audience {
		t.s.BroadcastRoom(UserRoom(contact), payload, "", true)
	}
}
