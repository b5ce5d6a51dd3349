package gateway

import (
	"encoding/json"
	"testing"

	"GateLink/tools/errs"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"message:send","data":{"roomId":"chat:42","content":"hi"}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Event != EvtMessageSend {
		t.Fatalf("event = %q", f.Event)
	}
	if f.Data["roomId"] != "chat:42" {
		t.Fatalf("data = %v", f.Data)
	}
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not json", "{}", `{"data":{"x":1}}`} {
		_, err := ParseFrame([]byte(raw))
		ce, ok := errs.Unwrap(err)
		if !ok || ce.Code != errs.ValidationErr {
			t.Fatalf("ParseFrame(%q) = %v, want validation error", raw, err)
		}
	}
}

func TestBuildErrorFrame(t *testing.T) {
	raw := BuildErrorFrame(errs.ErrRoomAccess.WithDetail("room chat:42"))

	var f struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal error frame: %v", err)
	}
	if f.Event != string(EvtError) {
		t.Fatalf("event = %q", f.Event)
	}
	if int(f.Data["code"].(float64)) != errs.RoomAccessErr {
		t.Fatalf("code = %v", f.Data["code"])
	}
	if f.Data["detail"] != "room chat:42" {
		t.Fatalf("detail = %v", f.Data["detail"])
	}
}

func TestNewMessageEnvelope(t *testing.T) {
	env := NewMessageEnvelope("alice", &MessagePayload{RoomID: "chat:42", Content: "hi", Type: "text"})
	if env.ID == "" || env.ID == "msg_" {
		t.Fatalf("envelope id = %q", env.ID)
	}
	if env.SenderID != "alice" || env.RoomID != "chat:42" || env.Content != "hi" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Timestamp == "" {
		t.Fatalf("envelope missing timestamp")
	}

	other := NewMessageEnvelope("alice", &MessagePayload{RoomID: "chat:42", Content: "hi"})
	if other.ID == env.ID {
		t.Fatalf("two envelopes share id %q", env.ID)
	}
}
