package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// EventRouter decodes inbound frames and applies them to the coordinator and
// the delivery engine. One router instance serves every connection; the
// per-connection state lives in the Client.
type EventRouter struct {
	coord  *Coordinator
	engine *Engine
}

// NewEventRouter builds the inbound dispatch.
func NewEventRouter(coord *Coordinator, engine *Engine) *EventRouter {
	return &EventRouter{coord: coord, engine: engine}
}

// HandleEvent processes a single inbound frame. Malformed frames answer the
// sender with an error event and leave all shared state untouched.
func (r *EventRouter) HandleEvent(ctx context.Context, client *Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.replyError(client, "malformed event")
		return
	}
	observability.IncWSEvent(env.Event)

	switch env.Event {
	case models.EventRegisterUser:
		var p models.RegisterPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID <= 0 {
			r.replyError(client, "invalid registerUser payload")
			return
		}
		r.coord.Register(p.UserID, client)

	case models.EventJoinChat:
		var p models.JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID <= 0 {
			r.replyError(client, "invalid joinChat payload")
			return
		}
		r.coord.Join(p.RoomID, client)

	case models.EventSendMessage:
		var p models.SendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.SenderID <= 0 || p.ReceiverID <= 0 {
			r.replyError(client, "invalid sendMessage payload")
			return
		}
		if _, err := r.engine.Send(ctx, client, p); err != nil {
			if errors.Is(err, ErrEmptyMessage) {
				r.replyError(client, "message is empty")
				return
			}
			log.Printf("send message failed: %v", err)
			r.replyError(client, "failed to send message")
		}

	case models.EventTyping:
		var p models.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ReceiverID <= 0 {
			r.replyError(client, "invalid typing payload")
			return
		}
		r.engine.Typing(client, p)

	case models.EventCheckOnlineStatus:
		var p models.RegisterPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID <= 0 {
			r.replyError(client, "invalid checkOnlineStatus payload")
			return
		}
		r.engine.CheckOnlineStatus(client, p.UserID)

	default:
		r.replyError(client, "unknown event")
	}
}

// Disconnect runs the idempotent teardown for a connection: full removal from
// presence and rooms before anyone can observe the client as joined, then the
// offline broadcast when the client had registered.
func (r *EventRouter) Disconnect(client *Client) {
	if userID, ok := r.coord.Unregister(client); ok {
		log.Printf("user %d disconnected conn=%s", userID, client.ID)
	}
	client.Close()
}

func (r *EventRouter) replyError(client *Client, msg string) {
	if err := client.Send(models.NewEnvelope(models.EventError, models.ErrorPayload{Error: msg})); err != nil {
		client.Close()
	}
}
