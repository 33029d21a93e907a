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

	"chatapp/internal/auth"
	"chatapp/internal/models"
	"chatapp/internal/observability"
)

// InboundEvent is the JSON envelope clients send over the websocket.
type InboundEvent struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	RecipientID *int   `json:"recipient_id,omitempty"`
	PeerID      *int   `json:"peer_id,omitempty"`
	MessageID   int    `json:"message_id,omitempty"`
}

// Inbound event names.
const (
	inboundMessage    = "message"
	inboundTyping     = "typing"
	inboundStopTyping = "stop-typing"
	inboundMarkRead   = "mark-read"
)

// ChatWebSocketHandler authenticates and upgrades chat connections, then
// runs the per-connection event loop.
type ChatWebSocketHandler struct {
	hub      *Hub
	presence *PresenceTracker
	typing   *TypingCoordinator
	router   *MessageRouter
	receipts *ReadReceipts
	verifier auth.Verifier
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, presence *PresenceTracker, typing *TypingCoordinator, router *MessageRouter, receipts *ReadReceipts, verifier auth.Verifier) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		hub:      hub,
		presence: presence,
		typing:   typing,
		router:   router,
		receipts: receipts,
		verifier: verifier,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and registers
// the client. Registry join and presence transition happen before any event
// is read; cleanup is unconditional on close.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chatapp/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	h.hub.Join(userID, conn, info)
	if h.presence.ConnectionOpened(userID) {
		h.hub.Broadcast(models.PresenceEvent(userID, true))
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishLifecycleEvent(ctx, "ws_connect", info, "")

	go h.readLoop(conn, info)
}

func (h *ChatWebSocketHandler) readLoop(conn *websocket.Conn, info ConnInfo) {
	// The handshake request context dies with the HTTP handler; events
	// processed over the connection's lifetime need their own.
	ctx := context.Background()
	userID := info.UserID

	var closeReason string
	defer func() {
		h.hub.Leave(userID, conn)
		h.typing.StopAll(userID)
		if h.presence.ConnectionClosed(userID) {
			h.hub.Broadcast(models.PresenceEvent(userID, false))
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		publishLifecycleEvent(ctx, "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				publishLifecycleEvent(ctx, "ws_error", info, closeReason)
			}
			return
		}

		var event InboundEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("malformed inbound event from user %d: %v", userID, err)
			continue
		}
		h.dispatch(ctx, userID, event)
	}
}

func (h *ChatWebSocketHandler) dispatch(ctx context.Context, userID int, event InboundEvent) {
	switch event.Type {
	case inboundMessage:
		if err := h.router.Submit(ctx, userID, event.Content, event.RecipientID); err != nil {
			if !errors.Is(err, ErrInvalidSubmission) {
				log.Printf("submit message from user %d: %v", userID, err)
			}
		}
	case inboundTyping:
		h.typing.Start(userID, event.PeerID)
	case inboundStopTyping:
		h.typing.Stop(userID, event.PeerID)
	case inboundMarkRead:
		if err := h.receipts.MarkRead(ctx, event.MessageID, userID); err != nil {
			log.Printf("mark read %d by user %d: %v", event.MessageID, userID, err)
		}
	default:
		log.Printf("unknown inbound event type %q from user %d", event.Type, userID)
	}
}

func (h *ChatWebSocketHandler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.verifier.Verify(parts[1])
	}
	return 0, auth.ErrInvalidToken
}

func publishLifecycleEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       name,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
