package models

import "encoding/json"

// Client-to-server event names.
const (
	EventRegisterUser      = "registerUser"
	EventJoinChat          = "joinChat"
	EventSendMessage       = "sendMessage"
	EventTyping            = "typing"
	EventCheckOnlineStatus = "checkOnlineStatus"
)

// Server-to-client event names.
const (
	EventMessage      = "message"
	EventUserStatus   = "userStatus"
	EventOnlineStatus = "onlineStatus"
	EventError        = "error"
)

// Envelope is the wire frame for every websocket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an Envelope.
func NewEnvelope(event string, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: raw}
}

// RegisterPayload binds a connection to a user.
type RegisterPayload struct {
	UserID int `json:"userId"`
}

// JoinPayload subscribes a connection to a room. The room id equals the peer
// participant's user id.
type JoinPayload struct {
	RoomID int `json:"roomId"`
}

// SendPayload carries an outgoing message.
type SendPayload struct {
	SenderID    int      `json:"senderId"`
	ReceiverID  int      `json:"receiverId"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

// TypingPayload is the transient typing signal, both inbound and outbound.
type TypingPayload struct {
	ReceiverID int  `json:"receiverId,omitempty"`
	IsTyping   bool `json:"isTyping"`
}

// StatusPayload announces a presence transition.
type StatusPayload struct {
	UserID int    `json:"userId"`
	Status string `json:"status"`
}

// ErrorPayload reports a failed operation to the requesting connection only.
type ErrorPayload struct {
	Error string `json:"error"`
}
