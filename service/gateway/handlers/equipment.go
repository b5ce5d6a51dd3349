package handlers

import (
	"GateLink/logger"
	"GateLink/service/gateway"
	"GateLink/tools/decode"
	"GateLink/tools/errs"
)

// Equipment and hold updates fan out to the room keyed by siteId. Whether
// the sender must itself be joined to that site room is configurable
// (RequireSiteMembership); with it off, enforcement is trusted upstream,
// which is how the original deployment ran.

type SiteUpdateHandler struct {
	inEvent  gateway.EventType
	outEvent gateway.EventType
}

func NewEquipmentHandler() gateway.Handler {
	return &SiteUpdateHandler{inEvent: gateway.EvtEquipmentUpdate, outEvent: gateway.EvtEquipmentStatus}
}

func NewHoldHandler() gateway.Handler {
	return &SiteUpdateHandler{inEvent: gateway.EvtHoldUpdate, outEvent: gateway.EvtHoldStatus}
}

func (h *SiteUpdateHandler) Type() gateway.EventType { return h.inEvent }

func (h *SiteUpdateHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	p, err := decode.Map[gateway.SitePayload](f.Data)
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	if p.SiteID == "" {
		return errs.ErrValidation.WithDetail("siteId is required")
	}

	room := gateway.SiteRoom(p.SiteID)
	if ctx.S.RequireSiteMembership() && !ctx.S.ConnMgr().IsMember(conn.ConnID, room) {
		return errs.ErrNotMember.WithDetail("room " + room)
	}

	payload, merr := gateway.EncodeFrame(h.outEvent, f.Data)
	if merr != nil {
		return merr
	}
	logger.Infof("[%s] user=%s site=%s", h.inEvent, conn.UserID, p.SiteID)
	ctx.S.BroadcastRoom(room, payload, "", true)
	return nil
}
