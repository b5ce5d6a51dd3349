package handlers

import (
	"context"
	"time"

	"GateLink/logger"
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

const accessTimeout = 3 * time.Second

type JoinHandler struct{}

func NewJoinHandler() gateway.Handler { return &JoinHandler{} }

func (h *JoinHandler) Type() gateway.EventType { return gateway.EvtJoinRoom }

// Handle re-validates access on every join: membership can change between
// joins, so nothing is cached. No state is mutated on a denied or failed
// check.
func (h *JoinHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.JoinRoomPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.RoomID == "" || p.Type == "" {
		return errs.ErrValidation.WithDetail("roomId and type are required")
	}

	// a repeat join is a no-op success, but only after re-validating access
	cctx, cancel := context.WithTimeout(context.Background(), accessTimeout)
	ok, aerr := ctx.S.Access().HasAccess(cctx, conn.UserID, p.RoomID, p.Type)
	cancel()
	if aerr != nil {
		logger.Errorf("[join] access check failed user=%s room=%s: %v", conn.UserID, p.RoomID, aerr)
		return errs.ErrInternal.WithDetail("access check unavailable")
	}
	if !ok {
		return errs.ErrRoomAccess.WithDetail("room " + p.RoomID)
	}

	if _, found := ctx.S.ConnMgr().JoinRoom(conn.ConnID, p.RoomID); !found {
		// connection raced a disconnect; nothing to acknowledge
		return nil
	}

	logger.Infof("[join] user=%s conn=%s room=%s type=%s", conn.UserID, conn.ConnID, p.RoomID, p.Type)
	if ack, err := gateway.BuildJoinedAck(p.RoomID); err == nil {
		conn.Deliver(ack)
	}
	return nil
}
