package handlers

import (
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

// Typing indicators are transient: broadcast to the room's other members,
// never persisted, no acknowledgement.

type TypingHandler struct {
	event  gateway.EventType
	typing bool
}

func NewTypingStartHandler() gateway.Handler {
	return &TypingHandler{event: gateway.EvtTypingStart, typing: true}
}

func NewTypingStopHandler() gateway.Handler {
	return &TypingHandler{event: gateway.EvtTypingStop, typing: false}
}

func (h *TypingHandler) Type() gateway.EventType { return h.event }

func (h *TypingHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.TypingPayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}
	if !ctx.S.ConnMgr().IsMember(conn.ConnID, p.RoomID) {
		return errs.ErrNotMember.WithDetail("room " + p.RoomID)
	}

	payload, merr := gateway.EncodeFrame(gateway.EvtTypingUser, map[string]any{
		"userId":   conn.UserID,
		"isTyping": h.typing,
	})
	if merr != nil {
		return merr
	}
	ctx.S.BroadcastRoom(p.RoomID, payload, conn.ConnID, true)
	return nil
}
