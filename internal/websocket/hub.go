package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts verdict events to them
type Hub struct {
	// Registered clients by assignee ID
	clients map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mutex sync.RWMutex

	// Logger
	logger *zerolog.Logger
}

// VerdictEvent notifies watchers that an item's risk verdict changed
type VerdictEvent struct {
	Type      string    `json:"type"`
	ItemID    string    `json:"item_id"`
	Level     string    `json:"level"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Message represents a generic WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// TopicAll is the wildcard subscription: clients that connect without an
// assignee filter receive every verdict event
const TopicAll = "all"

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin for now
		// In production, you should validate the origin
		return true
	},
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.Global(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient registers a new client
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.clients[client.AssigneeID] == nil {
		h.clients[client.AssigneeID] = make(map[*Client]bool)
	}
	h.clients[client.AssigneeID][client] = true

	metrics.Get().IncrementWSConnection()

	h.logger.Info().
		Str("assignee", client.AssigneeID).
		Int("assignee_connections", len(h.clients[client.AssigneeID])).
		Msg("WebSocket client registered")

	// Send welcome message
	welcome := Message{
		Type:      "connection",
		Data:      map[string]string{"status": "connected"},
		Timestamp: time.Now(),
	}
	client.SendMessage(welcome)
}

// unregisterClient unregisters a client
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.clients[client.AssigneeID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)

			metrics.Get().DecrementWSConnection()

			if len(clients) == 0 {
				delete(h.clients, client.AssigneeID)
			}

			h.logger.Info().
				Str("assignee", client.AssigneeID).
				Int("remaining_connections", len(clients)).
				Msg("WebSocket client unregistered")
		}
	}
}

// PublishVerdict pushes an item's verdict change to the clients watching
// the item's assignee, plus the wildcard subscribers
func (h *Hub) PublishVerdict(assigneeID, itemID, level, reason string) {
	event := VerdictEvent{
		Type:      "verdict",
		ItemID:    itemID,
		Level:     level,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("Failed to marshal verdict event")
		return
	}

	h.deliver(assigneeID, data)
	if assigneeID != TopicAll {
		h.deliver(TopicAll, data)
	}
}

// deliver sends raw data to every connection subscribed to an assignee,
// dropping clients whose send buffer is full
func (h *Hub) deliver(assigneeID string, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, exists := h.clients[assigneeID]
	if !exists {
		h.logger.Debug().
			Str("assignee", assigneeID).
			Msg("No WebSocket connections found for assignee")
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
			metrics.Get().IncrementWSMessageOut()
		default:
			h.logger.Warn().
				Str("assignee", assigneeID).
				Msg("Failed to send message to client, closing connection")
			close(client.Send)
			delete(clients, client)
			metrics.Get().DecrementWSConnection()
		}
	}

	if len(clients) == 0 {
		delete(h.clients, assigneeID)
	}
}

// GetConnectedAssignees returns the assignee IDs with at least one connection
func (h *Hub) GetConnectedAssignees() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	assignees := make([]string, 0, len(h.clients))
	for assigneeID := range h.clients {
		assignees = append(assignees, assigneeID)
	}
	return assignees
}

// GetConnectionCount returns the total number of active connections
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// RegisterClient is a public method to register a client (for testing)
func (h *Hub) RegisterClient(client *Client) {
	h.registerClient(client)
}

// UnregisterClient is a public method to unregister a client (for testing)
func (h *Hub) UnregisterClient(client *Client) {
	h.unregisterClient(client)
}
