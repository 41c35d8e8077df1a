package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/cloudbyte/internal/auth"
)

// Message is a session change pushed to a user's open pages.
type Message struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
}

// NewSessionMessage builds the message for a session change event.
func NewSessionMessage(ev auth.Event) Message {
	return Message{
		Type:      "session",
		Event:     string(ev.Kind),
		SessionID: ev.Session.ID,
	}
}

// Hub tracks connected clients by user and delivers messages to the
// clients of one user at a time.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
}

// Publish sends msg to every client of userID.
func (h *Hub) Publish(userID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message to avoid blocking
		}
	}
}

// HandleSessionEvent forwards a session provider event to the affected
// user. It is meant to be passed to auth.Service.Subscribe.
func (h *Hub) HandleSessionEvent(ev auth.Event) {
	h.Publish(ev.Session.UserID, NewSessionMessage(ev))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
