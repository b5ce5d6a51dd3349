package handlers

import (
	"GateLink/service/gateway"
)

// RegisterAll wires every inbound event handler into the server's
// dispatcher. Called once at boot.
func RegisterAll(s *gateway.Server) {
	for _, h := range []gateway.Handler{
		NewJoinHandler(),
		NewLeaveHandler(),
		NewMessageHandler(),
		NewTypingStartHandler(),
		NewTypingStopHandler(),
		NewPresenceHandler(),
		NewEmergencyHandler(),
		NewEquipmentHandler(),
		NewHoldHandler(),
	} {
		s.Disp().Register(h)
	}
}
