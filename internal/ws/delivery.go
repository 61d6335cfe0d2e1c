package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// ErrEmptyMessage rejects a send whose content is blank and which carries no
// attachments. Raised before any persistence or broadcast attempt.
var ErrEmptyMessage = errors.New("message needs content or attachments")

// Engine validates, persists and fans out messages, and routes the transient
// typing and online-status signals.
type Engine struct {
	coord    *Coordinator
	messages repositories.MessageRepository
}

// NewEngine builds a delivery engine on top of the coordinator and the
// message store.
func NewEngine(coord *Coordinator, messages repositories.MessageRepository) *Engine {
	return &Engine{coord: coord, messages: messages}
}

// Send persists an outgoing message and delivers it live. Durability precedes
// visibility: when the insert fails no socket receives anything. The sender
// always gets exactly one isSent=true echo on its own connection; everyone
// currently joined to the receiver's or the sender's room gets the
// isSent=false view. Zero reachable recipients is a success, the message
// surfaces via history on the next load.
func (e *Engine) Send(ctx context.Context, sender *Client, p models.SendPayload) (models.Message, error) {
	if strings.TrimSpace(p.Content) == "" && len(p.Attachments) == 0 {
		observability.IncMessage("rejected")
		return models.Message{}, ErrEmptyMessage
	}

	msg, err := e.messages.CreateMessage(ctx, p.SenderID, p.ReceiverID, p.Content, p.Attachments)
	if err != nil {
		observability.IncMessage("persist_failed")
		return models.Message{}, fmt.Errorf("persist message: %w", err)
	}

	sentEnv := models.NewEnvelope(models.EventMessage, msg.SentView())
	receivedEnv := models.NewEnvelope(models.EventMessage, msg.ReceivedView())

	// Self-echo is direct to the sender's connection, never room-based, so it
	// arrives regardless of which rooms the sender joined.
	if sender != nil {
		if err := sender.Send(sentEnv); err != nil {
			sender.Close()
		}
	}

	recipients := 0
	seen := map[*Client]struct{}{}
	if sender != nil {
		seen[sender] = struct{}{}
	}
	for _, roomID := range []int{RoomIDFor(p.ReceiverID), RoomIDFor(p.SenderID)} {
		for _, member := range e.coord.Members(roomID) {
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			if err := member.Send(receivedEnv); err != nil {
				member.Close()
				continue
			}
			recipients++
		}
	}

	if recipients == 0 {
		observability.IncMessage("no_recipients")
	} else {
		observability.IncMessage("delivered")
	}
	return msg, nil
}

// Typing forwards a non-persisted typing signal to the receiver's room,
// skipping the connection it came from. No acknowledgement, no retry; an
// empty room is a silent no-op.
func (e *Engine) Typing(sender *Client, p models.TypingPayload) {
	env := models.NewEnvelope(models.EventTyping, models.TypingPayload{IsTyping: p.IsTyping})
	for _, member := range e.coord.Members(RoomIDFor(p.ReceiverID)) {
		if member == sender {
			continue
		}
		if err := member.Send(env); err != nil {
			member.Close()
		}
	}
}

// CheckOnlineStatus answers the requesting connection with the presence of
// the given user.
func (e *Engine) CheckOnlineStatus(requester *Client, userID int) {
	online := e.coord.StatusOf(userID) == StatusOnline
	if err := requester.Send(models.NewEnvelope(models.EventOnlineStatus, online)); err != nil {
		requester.Close()
	}
}
