// Package websocket streams live modbus events to connected dashboard
// sessions.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/metrics"
)

// Message is the wire envelope for every broadcast frame.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub bound to the given lifetime context.
func NewHub(ctx context.Context) *Hub {
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		ctx:        hubCtx,
		cancel:     cancel,
	}
}

// Run processes register/unregister/broadcast events until the context ends.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketConnectionsActive.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnectionsActive.Dec()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full, drop the connection.
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnectionsActive.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the hub and closes every client.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketConnectionsActive.Dec()
	}
}

// BroadcastModbusEvent pushes a freshly ingested modbus event to all
// subscribers. Ingest never blocks on slow consumers.
func (h *Hub) BroadcastModbusEvent(event *models.ModbusEvent) error {
	msg := Message{
		Type:      "modbus_event",
		Timestamp: time.Now().UTC(),
		Payload:   event,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := h.ctx.Err(); err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
