package handlers

import (
	"GateLink/logger"
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

type LeaveHandler struct{}

func NewLeaveHandler() gateway.Handler { return &LeaveHandler{} }

func (h *LeaveHandler) Type() gateway.EventType { return gateway.EvtLeaveRoom }

// Leaving always succeeds; a room the socket never joined is a no-op.
func (h *LeaveHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.LeaveRoomPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}

	ctx.S.ConnMgr().LeaveRoom(conn.ConnID, p.RoomID)
	logger.Infof("[leave] user=%s conn=%s room=%s", conn.UserID, conn.ConnID, p.RoomID)

	if ack, err := gateway.BuildLeftAck(p.RoomID); err == nil {
		conn.Deliver(ack)
	}
	return nil
}
