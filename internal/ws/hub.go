package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatapp/internal/models"
	"chatapp/internal/observability"
)

const wsEventsRoutingKey = "ws_events.chat"

// Emitter resolves audiences and delivers outbound events. It is implemented
// by Hub; the router, typing coordinator and read-receipt aggregator depend
// on it rather than on the hub directly.
type Emitter interface {
	EmitToUser(userID int, event models.Event)
	Broadcast(event models.Event)
	BroadcastExcept(userID int, event models.Event)
}

// Hub maintains the registry of live websocket connections. Every user id
// maps to one logical room holding all of that user's connections, so
// multi-device delivery needs no duplication logic elsewhere.
type Hub struct {
	rooms map[int]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// Join binds a connection to the user's room.
func (h *Hub) Join(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[userID]; !ok {
		h.rooms[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[userID][conn] = info
}

// Leave removes the binding. Cleanup is unconditional on connection close
// regardless of in-flight operations.
func (h *Hub) Leave(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// ConnCount returns the number of live connections for a user.
func (h *Hub) ConnCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// EmitToUser sends an event to every live connection of one user. Offline
// users resolve to an empty audience and the event is dropped.
func (h *Hub) EmitToUser(userID int, event models.Event) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[userID]))
	for conn := range h.rooms[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	h.write(userID, conns, event)
}

// Broadcast sends an event to all connections of all users.
func (h *Hub) Broadcast(event models.Event) {
	h.broadcast(event, nil)
}

// BroadcastExcept sends an event to all connections except those of one user.
func (h *Hub) BroadcastExcept(userID int, event models.Event) {
	h.broadcast(event, &userID)
}

func (h *Hub) broadcast(event models.Event, except *int) {
	h.mu.RLock()
	targets := make(map[int][]*websocket.Conn, len(h.rooms))
	for userID, conns := range h.rooms {
		if except != nil && userID == *except {
			continue
		}
		for conn := range conns {
			targets[userID] = append(targets[userID], conn)
		}
	}
	h.mu.RUnlock()

	for userID, conns := range targets {
		h.write(userID, conns, event)
	}
}

func (h *Hub) write(userID int, conns []*websocket.Conn, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event: %v", err)
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			h.publishWSError(userID, conn, err)
			conn.Close()
			h.Leave(userID, conn)
		}
	}
}

func (h *Hub) publishWSError(userID int, conn *websocket.Conn, err error) {
	info, ok := h.connInfo(userID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) connInfo(userID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.rooms[userID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
