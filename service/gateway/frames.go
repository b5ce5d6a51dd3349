package gateway

import (
	"encoding/json"
	"time"

	"GateLink/tools/errs"
	"GateLink/tools/ids"
)

// EventType names the client-facing events. The wire format is one JSON
// object per websocket text frame: {"event": "...", "data": {...}}.
type EventType string

// inbound
const (
	EvtJoinRoom         EventType = "join:room"
	EvtLeaveRoom        EventType = "leave:room"
	EvtMessageSend      EventType = "message:send"
	EvtTypingStart      EventType = "typing:start"
	EvtTypingStop       EventType = "typing:stop"
	EvtPresenceUpdate   EventType = "presence:update"
	EvtEmergencyTrigger EventType = "emergency:trigger"
	EvtEquipmentUpdate  EventType = "equipment:update"
	EvtHoldUpdate       EventType = "hold:update"
)

// outbound
const (
	EvtConnected       EventType = "connected"
	EvtJoinedRoom      EventType = "joined:room"
	EvtLeftRoom        EventType = "left:room"
	EvtMessageReceived EventType = "message:received"
	EvtMessageSent     EventType = "message:sent"
	EvtTypingUser      EventType = "typing:user"
	EvtPresenceChanged EventType = "presence:changed"
	EvtEmergencyAlert  EventType = "emergency:alert"
	EvtEquipmentStatus EventType = "equipment:status"
	EvtHoldStatus      EventType = "hold:status"
	EvtError           EventType = "error"
)

// Frame is the envelope every client message travels in.
type Frame struct {
	Event EventType      `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.ErrValidation.WithDetail("unmarshal frame: " + err.Error())
	}
	if f.Event == "" {
		return nil, errs.ErrValidation.WithDetail("missing event")
	}
	return f, nil
}

// EncodeFrame builds the outbound wire bytes. Marshal errors cannot happen
// for the payload types used here; return them anyway for the callers that
// forward arbitrary maps.
func EncodeFrame(event EventType, data any) ([]byte, error) {
	return json.Marshal(struct {
		Event EventType `json:"event"`
		Data  any       `json:"data,omitempty"`
	}{Event: event, Data: data})
}

// ---- inbound payloads ----

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Type   string `json:"type"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type MessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type TypingPayload struct {
	RoomID string `json:"roomId"`
}

type PresencePayload struct {
	Status string `json:"status"`
}

type SitePayload struct {
	SiteID string `json:"siteId"`
}

// MessageEnvelope is created by the dispatcher for every accepted
// message:send and is immutable from then on. This subsystem never
// persists it; the archive producer only hands it off.
type MessageEnvelope struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	RoomID    string `json:"roomId"`
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewMessageEnvelope(senderID string, p *MessagePayload) *MessageEnvelope {
	return &MessageEnvelope{
		ID:        "msg_" + ids.GenerateString(),
		SenderID:  senderID,
		RoomID:    p.RoomID,
		Content:   p.Content,
		Type:      p.Type,
		Timestamp: NowISO(),
	}
}

// PresenceEvent is generated, never stored.
type PresenceEvent struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ---- ack builders ----

func BuildConnectedAck(connID, userID string) ([]byte, error) {
	return EncodeFrame(EvtConnected, map[string]any{
		"socketId":  connID,
		"userId":    userID,
		"timestamp": NowISO(),
	})
}

func BuildJoinedAck(roomID string) ([]byte, error) {
	return EncodeFrame(EvtJoinedRoom, map[string]any{"roomId": roomID, "success": true})
}

func BuildLeftAck(roomID string) ([]byte, error) {
	return EncodeFrame(EvtLeftRoom, map[string]any{"roomId": roomID})
}

func BuildMessageSentAck(env *MessageEnvelope) ([]byte, error) {
	return EncodeFrame(EvtMessageSent, map[string]any{
		"messageId": env.ID,
		"timestamp": env.Timestamp,
	})
}

func BuildErrorFrame(ce *errs.CodeError) []byte {
	raw, err := EncodeFrame(EvtError, map[string]any{
		"code":    ce.Code,
		"message": ce.Msg,
		"detail":  ce.Detail,
	})
	if err != nil {
		// can't happen for this shape; keep the connection alive regardless
		return []byte(`{"event":"error","data":{"code":1500,"message":"internal error"}}`)
	}
	return raw
}

func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
