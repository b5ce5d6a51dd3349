package handlers

import (
	"GateLink/logger"
	"GateLink/service/gateway"
	"GateLink/tools/errs"
)

// roles allowed to trigger an emergency broadcast
var emergencyRoles = map[string]bool{
	"admin":    true,
	"security": true,
}

type EmergencyHandler struct{}

func NewEmergencyHandler() gateway.Handler { return &EmergencyHandler{} }

func (h *EmergencyHandler) Type() gateway.EventType { return gateway.EvtEmergencyTrigger }

// Handle broadcasts to every connected socket process-wide and republishes
// via the backplane so every node broadcasts locally too. A failed role
// check reaches nobody and mutates nothing.
func (h *EmergencyHandler) Handle(ctx *gateway.Context, f *gateway.Frame, conn *gateway.WsConn) error {
	if !emergencyRoles[conn.Role] {
		return errs.ErrRoleRequired.WithDetail("emergency trigger requires admin or security")
	}

	data := make(map[string]any, len(f.Data)+2)
	for k, v := range f.Data {
		data[k] = v
	}
	data["triggeredBy"] = conn.UserID
	data["timestamp"] = gateway.NowISO()

	payload, merr := gateway.EncodeFrame(gateway.EvtEmergencyAlert, data)
	if merr != nil {
		return merr
	}

	logger.Warnf("[emergency] triggered by user=%s role=%s", conn.UserID, conn.Role)
	ctx.S.BroadcastAll(payload, true)
	return nil
}
