package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/auth"
	"messaging-service/internal/dispatch"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/registry"
	"messaging-service/internal/throttle"
)

// Handler owns websocket handshakes and per-connection event loops.
type Handler struct {
	registry      *registry.Registry
	throttle      *throttle.Controller
	dispatcher    dispatch.Service
	authenticator *auth.Authenticator
	idleTimeout   time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(
	reg *registry.Registry,
	ctrl *throttle.Controller,
	dispatcher dispatch.Service,
	authenticator *auth.Authenticator,
	idleTimeout time.Duration,
) *Handler {
	return &Handler{
		registry:      reg,
		throttle:      ctrl,
		dispatcher:    dispatcher,
		authenticator: authenticator,
		idleTimeout:   idleTimeout,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, admits the connection and runs its
// event loop. Authentication happens before registration, so no
// partially-registered connection can exist.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.TokenFromRequest(c.Request)
	identity, err := h.authenticator.Authenticate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authCode(err)})
		return
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	snd := newSender(wsConn)
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	conn := &registry.Connection{
		ID:          newConnID(),
		UserID:      identity.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
		Sender:      snd,
	}

	if err := h.registry.Register(conn); err != nil {
		observability.IncCapacityRejection()
		h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodeCapacityExceeded})
		_ = snd.Close()
		return
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, conn, "ws_connect", "")

	// The request context is cancelled as soon as this handler returns; the
	// loop keeps the span and values but must outlive the handshake.
	go h.readLoop(context.WithoutCancel(ctx), conn, wsConn, snd)
}

func (h *Handler) readLoop(ctx context.Context, conn *registry.Connection, wsConn *websocket.Conn, snd *sender) {
	var closeReason string
	defer func() {
		h.registry.Unregister(conn.ID)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, conn, "ws_disconnect", closeReason)
		_ = snd.Close()
	}()

	for {
		if h.idleTimeout > 0 {
			_ = wsConn.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, conn, "ws_error", closeReason)
			}
			return
		}

		h.handleEvent(ctx, conn, snd, raw)
	}
}

// handleEvent gates one inbound frame through the throttle controller and
// routes it into the dispatch layer. Every accepted frame yields an ack or a
// distinguishable error frame.
func (h *Handler) handleEvent(ctx context.Context, conn *registry.Connection, snd *sender, raw []byte) {
	var event models.InboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodeBadEvent})
		return
	}

	class, ok := classFor(event.Type)
	if !ok {
		h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodeBadEvent})
		return
	}

	if err := h.throttle.TryEmit(ctx, conn.UserID, class, time.Now()); err != nil {
		var throttled *throttle.Error
		if errors.As(err, &throttled) {
			observability.IncThrottleRejection(string(class))
			h.writeError(snd, models.ErrorFrame{
				Type:         "error",
				Code:         models.CodeThrottleExceeded,
				RetryAfterMs: throttled.RetryAfter.Milliseconds(),
			})
			return
		}
		log.Printf("throttle check failed: %v", err)
		h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodePersistenceFailure})
		return
	}

	switch event.Type {
	case models.EventMessage:
		var payload models.MessagePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil || strings.TrimSpace(payload.Content) == "" {
			h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodeBadEvent})
			return
		}
		msg, err := h.dispatcher.SendMessage(ctx, conn.UserID, event.ConversationID, payload.Content, payload.Mentions)
		if err != nil {
			h.writeError(snd, dispatchError(err))
			return
		}
		h.writeAck(snd, models.AckFrame{Type: "ack", Event: models.EventMessage, MessageID: msg.ID})

	case models.EventTyping:
		if err := h.dispatcher.Typing(ctx, conn.UserID, event.ConversationID); err != nil {
			h.writeError(snd, dispatchError(err))
			return
		}
		h.writeAck(snd, models.AckFrame{Type: "ack", Event: models.EventTyping})

	case models.EventReadReceipt:
		var payload models.ReadReceiptPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.MessageID == 0 {
			h.writeError(snd, models.ErrorFrame{Type: "error", Code: models.CodeBadEvent})
			return
		}
		if err := h.dispatcher.MarkRead(ctx, conn.UserID, event.ConversationID, payload.MessageID); err != nil {
			h.writeError(snd, dispatchError(err))
			return
		}
		h.writeAck(snd, models.AckFrame{Type: "ack", Event: models.EventReadReceipt})
	}
}

func (h *Handler) writeAck(snd *sender, ack models.AckFrame) {
	payload, _ := json.Marshal(ack)
	if err := snd.Push(payload); err != nil {
		log.Printf("websocket ack write error: %v", err)
	}
}

func (h *Handler) writeError(snd *sender, frame models.ErrorFrame) {
	payload, _ := json.Marshal(frame)
	if err := snd.Push(payload); err != nil {
		log.Printf("websocket error write error: %v", err)
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, conn *registry.Connection, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     conn.ID,
			"duration_ms": time.Since(conn.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   conn.UserID,
			"device_id": conn.DeviceID,
			"ip":        conn.IP,
		},
	}

	headers := observability.BuildHeaders(conn.RequestID, conn.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.connections", observability.EventEnvelope{
		SchemaVersion: 1,
		EventType:     "ws_events",
		EventName:     event,
		Source:        "messaging-service",
		Payload:       payload,
	}, headers)
}

func classFor(eventType string) (throttle.Class, bool) {
	switch eventType {
	case models.EventMessage:
		return throttle.ClassMessage, true
	case models.EventTyping:
		return throttle.ClassTyping, true
	case models.EventReadReceipt:
		return throttle.ClassReadReceipt, true
	default:
		return "", false
	}
}

func dispatchError(err error) models.ErrorFrame {
	if errors.Is(err, dispatch.ErrNotParticipant) {
		return models.ErrorFrame{Type: "error", Code: models.CodeNotParticipant}
	}
	return models.ErrorFrame{Type: "error", Code: models.CodePersistenceFailure}
}

func authCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return models.CodeMissingToken
	case errors.Is(err, auth.ErrExpiredToken):
		return models.CodeExpiredToken
	default:
		return models.CodeInvalidToken
	}
}
