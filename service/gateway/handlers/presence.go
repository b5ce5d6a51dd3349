package handlers

import (
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

var allowedStatuses = map[string]bool{
	"online":  true,
	"offline": true,
	"away":    true,
	"busy":    true,
}

type PresenceHandler struct{}

func NewPresenceHandler() gateway.Handler { return &PresenceHandler{} }

func (h *PresenceHandler) Type() gateway.EventType { return gateway.EvtPresenceUpdate }

// Handle updates the connection's presence attribute and notifies the
// audience the contacts resolver defines.
func (h *PresenceHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.PresencePayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if !allowedStatuses[p.Status] {
		return errs.ErrValidation.WithDetail("status must be one of online/offline/away/busy")
	}

	if !ctx.S.ConnMgr().SetPresence(conn.ConnID, p.Status) {
		return nil // raced a disconnect
	}
	ctx.S.Presence().StatusChanged(conn.UserID, p.Status)
	return nil
}
