package handlers

import (
	"GateLink/logger"
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

type MessageHandler struct{}

func NewMessageHandler() gateway.Handler { return &MessageHandler{} }

func (h *MessageHandler) Type() gateway.EventType { return gateway.EvtMessageSend }

// Handle requires current room membership, builds the immutable envelope,
// fans out to the room (local + backplane) minus the sender, and acks the
// sender with the assigned id and timestamp.
func (h *MessageHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.MessagePayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.RoomID == "" {
		return errs.ErrValidation.WithDetail("roomId is required")
	}
	if p.Content == "" {
		return errs.ErrValidation.WithDetail("content is required")
	}

	if !ctx.S.ConnMgr().IsMember(conn.ConnID, p.RoomID) {
		return errs.ErrNotMember.WithDetail("room " + p.RoomID)
	}

	env := gateway.NewMessageEnvelope(conn.UserID, p)
	payload, merr := gateway.EncodeFrame(gateway.EvtMessageReceived, env)
	if merr != nil {
		return merr
	}

	ctx.S.BroadcastRoom(p.RoomID, payload, conn.ConnID, true)

	if sink := ctx.S.ArchiveSink(); sink != nil {
		sink.Archive(p.RoomID, payload)
	}

	logger.Debugf("[message] user=%s room=%s id=%s", conn.UserID, p.RoomID, env.ID)
	if ack, err := gateway.BuildMessageSentAck(env); err == nil {
		conn.Deliver(ack)
	}
	return nil
}
