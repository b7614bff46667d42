// Package websocket pushes live updates to dashboard clients: cleaning
// progress while an upload is processed and data_update notices when a
// country dataset changes.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"solarcli/internal/infrastructure"
)

// Message types sent to clients.
const (
	TypeConnection = "connection"
	TypeProgress   = "progress"
	TypeDataUpdate = "data_update"
	TypeError      = "error"
)

// Message is the envelope for every broadcast.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ProgressPayload reports one cleaning pipeline step.
type ProgressPayload struct {
	Country string `json:"country"`
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// DataUpdatePayload announces a changed dataset.
type DataUpdatePayload struct {
	Country string `json:"country"`
	Rows    int    `json:"rows"`
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}

	logger *slog.Logger

	totalConnections  int64
	activeConnections int64
	messagesSent      int64
}

// NewHub creates a hub. A nil logger falls back to the global logger.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start runs the hub loop until Stop is called.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub down and closes all client connections.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			h.activeConnections++
			h.mu.Unlock()
			h.logger.Debug("client registered",
				slog.String("client_id", client.id),
				slog.Int64("active", h.ActiveConnections()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.activeConnections--
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
					h.activeConnections--
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.activeConnections = 0
			h.mu.Unlock()
			return
		}
	}
}

// Register attaches a client to the hub. Returns false when the hub
// has been stopped, so callers can close the connection instead of
// blocking on a loop that is no longer running.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister detaches a client. Safe to call after Stop.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msg Message) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping message",
			slog.String("type", msg.Type))
	}
}

// BroadcastProgress reports a cleaning step to all clients.
func (h *Hub) BroadcastProgress(country, step string, percent int) {
	h.Broadcast(Message{
		Type:    TypeProgress,
		Payload: ProgressPayload{Country: country, Step: step, Percent: percent},
	})
}

// BroadcastDataUpdate announces that a country dataset changed.
func (h *Hub) BroadcastDataUpdate(country string, rows int) {
	h.Broadcast(Message{
		Type:    TypeDataUpdate,
		Payload: DataUpdatePayload{Country: country, Rows: rows},
	})
}

// ActiveConnections returns the number of connected clients.
func (h *Hub) ActiveConnections() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeConnections
}

// TotalConnections returns the number of connections ever accepted.
func (h *Hub) TotalConnections() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConnections
}
