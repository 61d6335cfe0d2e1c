package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"messaging-service/internal/observability"
	"messaging-service/internal/telemetry"
)

const eventsRoutingKey = "ws_events.messaging"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SocketHandler upgrades HTTP requests to websocket sessions and runs the
// per-connection read loop.
type SocketHandler struct {
	router  *EventRouter
	emitter *telemetry.Emitter
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(router *EventRouter, emitter *telemetry.Emitter) *SocketHandler {
	return &SocketHandler{router: router, emitter: emitter}
}

// Handle upgrades the connection and owns its lifecycle. All inbound frames
// go through the event router; teardown runs exactly once when the read loop
// exits.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn)
	client.IP = observability.IPFromRequest(c.Request)
	client.RequestID = observability.RequestIDFromRequest(c.Request)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.emitLifecycle(ctx, client, "ws_connect", "")

	go func() {
		var closeReason string
		defer func() {
			h.router.Disconnect(client)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			h.emitLifecycle(context.Background(), client, "ws_disconnect", closeReason)
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					h.emitLifecycle(ctx, client, "ws_error", closeReason)
				}
				return
			}
			h.router.HandleEvent(ctx, client, raw)
		}
	}()
}

func (h *SocketHandler) emitLifecycle(ctx context.Context, client *Client, event, reason string) {
	h.emitter.Emit(ctx, eventsRoutingKey, "ws_events", event, client.RequestID, nil, map[string]any{
		"conn_id":     client.ID,
		"ip":          client.IP,
		"duration_ms": time.Since(client.ConnectedAt).Milliseconds(),
		"reason":      reason,
	})
}
