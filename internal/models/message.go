package models

import (
	"time"

	"github.com/lib/pq"
)

// Message is one persisted chat message between two users. Attachments are
// opaque URLs produced by the upload endpoint.
type Message struct {
	ID          int            `db:"id" json:"id"`
	SenderID    int            `db:"sender_id" json:"sender_id"`
	ReceiverID  int            `db:"receiver_id" json:"receiver_id"`
	Content     string         `db:"content" json:"content"`
	Attachments pq.StringArray `db:"attachments" json:"attachments"`
	Read        bool           `db:"read" json:"read"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// DeliveredMessage is the per-recipient view of a persisted message. IsSent
// tells the receiving UI whether the bubble is its own outgoing one.
type DeliveredMessage struct {
	Message
	IsSent bool `json:"isSent"`
}

// SentView and ReceivedView build the two delivery views of one message.
func (m Message) SentView() DeliveredMessage     { return DeliveredMessage{Message: m, IsSent: true} }
func (m Message) ReceivedView() DeliveredMessage { return DeliveredMessage{Message: m, IsSent: false} }
