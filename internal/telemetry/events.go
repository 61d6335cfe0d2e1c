package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher is the transport the emitter publishes through.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Envelope is the schema every emitted event is wrapped in.
type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id,omitempty"`
	UserID        *int   `json:"user_id,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

// Emitter publishes service events (connection lifecycle, registrations) to
// the configured broker. A nil emitter or publisher is a no-op.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
}

// NewEmitter constructs an Emitter.
func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{publisher: publisher, service: service, environment: environment}
}

// Emit publishes one event. Failures are logged and never propagate.
func (e *Emitter) Emit(ctx context.Context, routingKey, eventType, eventName, requestID string, userID *int, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		EventName:     eventName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, routingKey, envelope); err != nil {
		log.Printf("event publish failed: %v", err)
	}
}
