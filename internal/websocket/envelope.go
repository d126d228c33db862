package websocket

import (
	"encoding/json"
	"time"
)

// MessageType discriminates every frame the hub sends or receives.
type MessageType string

const (
	// Lifecycle
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeHeartbeat  MessageType = "heartbeat"

	// Pet state
	MessageTypePetMetricsUpdate MessageType = "pet_metrics_update"
	MessageTypePetStateChange   MessageType = "pet_state_change"
	MessageTypePetFeed          MessageType = "pet_feed"
	MessageTypePetPlay          MessageType = "pet_play"

	// Tasks
	MessageTypeTaskCreated   MessageType = "task_created"
	MessageTypeTaskCompleted MessageType = "task_completed"
	MessageTypeTaskAssigned  MessageType = "task_assigned"

	// Room membership and presence
	MessageTypeUserJoined MessageType = "user_joined"
	MessageTypeUserLeft   MessageType = "user_left"
	MessageTypeUserOnline MessageType = "user_online"

	// Economy
	MessageTypeCurrencyUpdate MessageType = "currency_update"
	MessageTypeTransaction    MessageType = "transaction"

	// Notifications
	MessageTypeNotification MessageType = "notification"
	MessageTypeAlert        MessageType = "alert"

	// Chat
	MessageTypeMessage MessageType = "message"
)

var validMessageTypes = map[MessageType]struct{}{
	MessageTypeConnect:          {},
	MessageTypeDisconnect:       {},
	MessageTypeHeartbeat:        {},
	MessageTypePetMetricsUpdate: {},
	MessageTypePetStateChange:   {},
	MessageTypePetFeed:          {},
	MessageTypePetPlay:          {},
	MessageTypeTaskCreated:      {},
	MessageTypeTaskCompleted:    {},
	MessageTypeTaskAssigned:     {},
	MessageTypeUserJoined:       {},
	MessageTypeUserLeft:         {},
	MessageTypeUserOnline:       {},
	MessageTypeCurrencyUpdate:   {},
	MessageTypeTransaction:      {},
	MessageTypeNotification:     {},
	MessageTypeAlert:            {},
	MessageTypeMessage:          {},
}

func (t MessageType) IsValid() bool {
	_, ok := validMessageTypes[t]
	return ok
}

// Envelope is the wire frame for every hub push. Only the fields
// relevant to a given type are populated; the rest are omitted.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`

	ClientID string `json:"client_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	PetID    string `json:"pet_id,omitempty"`

	Message  string `json:"message,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`

	Metrics      map[string]interface{} `json:"metrics,omitempty"`
	Task         map[string]interface{} `json:"task,omitempty"`
	Notification interface{}            `json:"notification,omitempty"`
	Text         string                 `json:"text,omitempty"`
}

func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewConnectEnvelope confirms a fresh registration to the client itself.
func NewConnectEnvelope(clientID string) *Envelope {
	return &Envelope{
		Type:      MessageTypeConnect,
		Timestamp: now(),
		ClientID:  clientID,
		Message:   "Connected to pet service",
	}
}

// NewHeartbeatAck answers a liveness ping.
func NewHeartbeatAck() *Envelope {
	return &Envelope{
		Type:      MessageTypeHeartbeat,
		Timestamp: now(),
		Status:    "alive",
	}
}

// NewUserJoined announces a new room member to the rest of the room.
func NewUserJoined(userID, petID string) *Envelope {
	return &Envelope{
		Type:      MessageTypeUserJoined,
		Timestamp: now(),
		UserID:    userID,
		PetID:     petID,
	}
}

// NewUserLeft announces a departed room member to the rest of the room.
func NewUserLeft(userID, petID string) *Envelope {
	return &Envelope{
		Type:      MessageTypeUserLeft,
		Timestamp: now(),
		UserID:    userID,
		PetID:     petID,
	}
}

// NewMetricsUpdate carries a full metrics snapshot for a pet.
func NewMetricsUpdate(petID string, metrics map[string]interface{}) *Envelope {
	return &Envelope{
		Type:      MessageTypePetMetricsUpdate,
		Timestamp: now(),
		PetID:     petID,
		Metrics:   metrics,
	}
}

// NewTaskUpdate carries a task lifecycle event of the given kind.
func NewTaskUpdate(kind MessageType, petID string, task map[string]interface{}) *Envelope {
	return &Envelope{
		Type:      kind,
		Timestamp: now(),
		PetID:     petID,
		Task:      task,
	}
}

// NewNotification wraps arbitrary notification content. Critical
// priority upgrades the frame to an alert.
func NewNotification(content interface{}, priority string) *Envelope {
	kind := MessageTypeNotification
	if priority == "critical" {
		kind = MessageTypeAlert
	}
	return &Envelope{
		Type:         kind,
		Timestamp:    now(),
		Priority:     priority,
		Notification: content,
	}
}

// NewChatMessage carries a chat line posted into a pet room.
func NewChatMessage(userID, petID, text string) *Envelope {
	return &Envelope{
		Type:      MessageTypeMessage,
		Timestamp: now(),
		UserID:    userID,
		PetID:     petID,
		Text:      text,
	}
}
