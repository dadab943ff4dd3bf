// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// RoomConnection wraps a single user's active WebSocket connection for a room.
type RoomConnection struct {
	UserID   uuid.UUID
	Username string
	Cancel   context.CancelFunc
	OutChan  chan []byte
}

// NewRoomConnection returns a connection with a buffered outbound queue.
func NewRoomConnection(userID uuid.UUID, username string, cancel context.CancelFunc) *RoomConnection {
	return &RoomConnection{
		UserID:   userID,
		Username: username,
		Cancel:   cancel,
		OutChan:  make(chan []byte, 64),
	}
}

// push queues data without blocking. A full queue means the client stopped reading; it is cut off.
func (conn *RoomConnection) push(data []byte) bool {
	select {
	case conn.OutChan <- data:
		return true
	default:
		conn.Cancel()
		return false
	}
}

// WriteJSON queues a JSON message.
func (conn *RoomConnection) WriteJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Warnf("Failed to marshal outgoing msg for user %v: %v", conn.UserID, err)
		return
	}
	conn.push(data)
}

// WriteError will push an error message to the user's message channel.
// The structure is as follows:
//
//	{
//	 "type": "error",
//	 "code": code,
//	 "message": msg
//	}
func (conn *RoomConnection) WriteError(code, msg string) {
	conn.WriteJSON(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": msg,
	})
}

// Hub tracks who is connected to which room.
type Hub struct {
	mu     deadlock.Mutex
	rooms  map[string]map[uuid.UUID]*RoomConnection
	logger *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[uuid.UUID]*RoomConnection),
		logger: logger,
	}
}

// Add registers conn in a room, replacing (and cancelling) an older connection of the same user.
func (h *Hub) Add(roomID string, conn *RoomConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[uuid.UUID]*RoomConnection)
		h.rooms[roomID] = conns
	}
	if old, exists := conns[conn.UserID]; exists && old != conn {
		old.Cancel()
	}
	conns[conn.UserID] = conn
}

// Remove drops conn if it is still the user's current connection.
func (h *Hub) Remove(roomID string, conn *RoomConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.rooms[roomID]
	if conns[conn.UserID] == conn {
		delete(conns, conn.UserID)
	}
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
}

// Count returns the number of connections in a room.
func (h *Hub) Count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// Broadcast sends raw bytes to every connection in a room.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.rooms[roomID] {
		if !conn.push(data) {
			h.logger.Warnf("Room %s: outbound queue full for user %v, dropping connection", roomID, id)
		}
	}
}

// SendTo sends raw bytes to one user in a room. Offline users simply miss the message and can ask
// for a sync when they return.
func (h *Hub) SendTo(roomID string, userID uuid.UUID, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.rooms[roomID][userID]; ok {
		if !conn.push(data) {
			h.logger.Warnf("Room %s: outbound queue full for user %v, dropping connection", roomID, userID)
		}
	}
}

// BroadcastJSON marshals msg and sends it to a room.
func (h *Hub) BroadcastJSON(roomID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warnf("Room %s: failed to marshal broadcast: %v", roomID, err)
		return
	}
	h.Broadcast(roomID, data)
}

// BroadcastChat sends a chat message from a given user. uuid.Nil marks a system message.
func (h *Hub) BroadcastChat(roomID string, userID uuid.UUID, msg string) {
	h.BroadcastJSON(roomID, map[string]interface{}{
		"type":    "chat",
		"user_id": userID.String(),
		"msg":     msg,
		"ts":      time.Now().Unix(),
	})
}
