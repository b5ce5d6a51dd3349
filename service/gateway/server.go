package gateway

import (
	"context"
	"time"

	"GateLink/logger"
	"GateLink/service/backplane"
	"GateLink/tools/errs"
	"GateLink/tools/safe"
	"GateLink/tools/security"
)

// AccessChecker is the external authorization store consulted on every join.
type AccessChecker interface {
	HasAccess(ctx context.Context, userID, roomID, roomType string) (bool, error)
}

// Archiver hands accepted message envelopes to the external persistence
// pipeline. Optional; nil disables the hand-off.
type Archiver interface {
	Archive(roomID string, payload []byte)
}

// Options wires the server's collaborators. Bus, Access and Verifier are
// required; the rest may be nil/zero.
type Options struct {
	NodeID   string
	Verifier security.Verifier
	Bus      backplane.Backplane
	Access   AccessChecker
	Audience AudienceResolver
	Mirror   PresenceMirror
	Archive  Archiver

	RequireSiteMembership bool
	SendQueueSize         int
	FanoutQueue           int
}

// Server is one gateway node: it owns the connection manager, the event
// dispatcher, the fan-out queue and the backplane subscription.
type Server struct {
	nodeID   string
	verifier security.Verifier
	mgr      *ConnManager
	disp     *Dispatcher
	fan      *Fanout
	bus      backplane.Backplane
	access   AccessChecker
	presence *PresenceTracker
	archive  Archiver

	requireSiteMembership bool
	sendQueueSize         int
	startAt               time.Time
}

func NewServer(o Options) *Server {
	s := &Server{
		nodeID:                o.NodeID,
		verifier:              o.Verifier,
		mgr:                   NewConnManager(),
		disp:                  NewDispatcher(),
		fan:                   NewFanout(o.FanoutQueue),
		bus:                   o.Bus,
		access:                o.Access,
		archive:               o.Archive,
		requireSiteMembership: o.RequireSiteMembership,
		sendQueueSize:         o.SendQueueSize,
		startAt:               time.Now(),
	}
	audience := o.Audience
	if audience == nil {
		audience = noAudience{}
	}
	s.presence = newPresenceTracker(s, audience, o.Mirror)
	return s
}

type noAudience struct{}

func (noAudience) PresenceAudience(context.Context, string) ([]string, error) { return nil, nil }

func (s *Server) NodeID() string              { return s.nodeID }
func (s *Server) ConnMgr() *ConnManager       { return s.mgr }
func (s *Server) Disp() *Dispatcher           { return s.disp }
func (s *Server) Access() AccessChecker       { return s.access }
func (s *Server) Presence() *PresenceTracker  { return s.presence }
func (s *Server) ArchiveSink() Archiver       { return s.archive }
func (s *Server) RequireSiteMembership() bool { return s.requireSiteMembership }
func (s *Server) Uptime() time.Duration       { return time.Since(s.startAt) }

// Room naming. Personal and role rooms are auto-joined from verified claims
// at connect time; site rooms key equipment/hold broadcasts.
func UserRoom(userID string) string { return "user:" + userID }
func RoleRoom(role string) string   { return "role:" + role }
func SiteRoom(siteID string) string { return "site:" + siteID }

// Run starts the backplane subscription and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) {
	safe.Go("backplane-subscribe", func() {
		s.bus.Subscribe(ctx, s.onBusMessage)
	})
	<-ctx.Done()
	s.Shutdown()
}

func (s *Server) Shutdown() {
	s.mgr.CloseAll()
	s.fan.Close()
	_ = s.bus.Close()
}

// onBusMessage re-emits a remote broadcast to local subscribers. Envelopes
// this node published are skipped: local delivery already happened at
// publish time, and re-emitting would duplicate (and re-publishing would
// loop forever).
func (s *Server) onBusMessage(env backplane.Envelope) {
	if env.Origin == s.nodeID {
		return
	}
	switch env.Scope {
	case backplane.ScopeAll:
		s.fan.Broadcast(s.mgr.AllConns(), env.Payload)
	case backplane.ScopeRoom:
		s.fan.Broadcast(s.mgr.RoomConns(env.RoomID, ""), env.Payload)
	default:
		logger.Infof("[bus] drop envelope with unknown scope=%q origin=%s", env.Scope, env.Origin)
	}
}

// BroadcastRoom delivers payload to the room's local subscribers (minus
// except) and, when publish is set, to the same room on every other node.
func (s *Server) BroadcastRoom(roomID string, payload []byte, except string, publish bool) {
	s.fan.Broadcast(s.mgr.RoomConns(roomID, except), payload)
	if publish {
		s.publish(backplane.Envelope{
			Origin:  s.nodeID,
			Scope:   backplane.ScopeRoom,
			RoomID:  roomID,
			Payload: payload,
		})
	}
}

// BroadcastAll delivers payload to every socket on this node and republishes
// so every other node broadcasts locally too.
func (s *Server) BroadcastAll(payload []byte, publish bool) {
	s.fan.Broadcast(s.mgr.AllConns(), payload)
	if publish {
		s.publish(backplane.Envelope{
			Origin:  s.nodeID,
			Scope:   backplane.ScopeAll,
			Payload: payload,
		})
	}
}

func (s *Server) publish(env backplane.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, env); err != nil {
		// degraded single-process fan-out; the adapter already logged it
		return
	}
}

// EmitTo sends one event to a single connection.
func (s *Server) EmitTo(c *WsConn, event EventType, data any) {
	payload, err := EncodeFrame(event, data)
	if err != nil {
		logger.Errorf("[emit] encode %s failed conn=%s: %v", event, c.ConnID, err)
		return
	}
	c.Deliver(payload)
}

// SendError delivers exactly one typed error frame to the sender.
func (s *Server) SendError(c *WsConn, ce *errs.CodeError) {
	c.Deliver(BuildErrorFrame(ce))
}

// HandleFrame dispatches one inbound frame and applies the failure policy:
// CodeErrors go back to the sender as typed error events; anything else is
// logged with context and surfaced as a generic internal error. Neither
// closes the connection.
func (s *Server) HandleFrame(f *Frame, conn *WsConn) {
	err := s.disp.Dispatch(&Context{S: s}, f, conn)
	if err == nil {
		return
	}
	if ce, ok := errs.Unwrap(err); ok {
		s.SendError(conn, ce)
		return
	}
	logger.Errorf("[dispatch] handler error event=%s conn=%s user=%s: %v",
		f.Event, conn.ConnID, conn.UserID, err)
	s.SendError(conn, errs.ErrInternal)
}

// Counts reports (connections, users, rooms) for the ops endpoints.
func (s *Server) Counts() (conns, users, rooms int) {
	return s.mgr.Counts()
}
