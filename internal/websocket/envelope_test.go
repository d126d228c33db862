package websocket

import (
	"encoding/json"
	"testing"
)

func TestMessageTypeIsValid(t *testing.T) {
	for mt := range validMessageTypes {
		if !mt.IsValid() {
			t.Errorf("%q should be valid", mt)
		}
	}
	for _, bad := range []MessageType{"", "pet_metrics", "CONNECT", "unknown"} {
		if bad.IsValid() {
			t.Errorf("%q should not be valid", bad)
		}
	}
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	data, err := NewHeartbeatAck().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{"client_id", "pet_id", "metrics", "task", "text"} {
		if _, present := raw[forbidden]; present {
			t.Errorf("heartbeat ack should not carry %q", forbidden)
		}
	}
	if raw["status"] != "alive" {
		t.Errorf("expected status alive, got %v", raw["status"])
	}
}

func TestChatMessageWireShape(t *testing.T) {
	data, err := NewChatMessage("7", "42", "good morning, Mochi").Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != MessageTypeMessage || env.UserID != "7" || env.PetID != "42" {
		t.Errorf("unexpected round trip: %+v", env)
	}
	if env.Text != "good morning, Mochi" {
		t.Errorf("text lost in transit: %q", env.Text)
	}
}
