package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Message types exchanged over the websocket
const (
	MessageStats       = "stats"
	MessageError       = "error"
	MessageAuth        = "auth"
	MessageAuthSuccess = "auth_success"
	MessageAuthError   = "auth_error"
	MessagePing        = "ping"
	MessagePong        = "pong"
)

// DefaultBroadcastInterval is how often stats are pushed to clients
const DefaultBroadcastInterval = 5 * time.Second

// WebSocketMessage is a message sent over the websocket in either direction
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Token     string      `json:"token,omitempty"`
}

// ClientConnection represents a connected websocket client
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// NewClientConnection wraps conn with a buffered send queue
func NewClientConnection(id string, conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		ID:   id,
		Conn: conn,
		Send: make(chan WebSocketMessage, 16),
	}
}

// StatsSource produces the payload broadcast on every tick
type StatsSource func(ctx context.Context) (interface{}, error)

// WebSocketHub manages all connected websocket clients
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	register   chan *ClientConnection
	unregister chan string
	broadcast  chan WebSocketMessage
	direct     chan addressedMessage
	done       chan struct{}
	mu         sync.RWMutex
	interval   time.Duration
	source     StatsSource
	gathering  atomic.Bool
}

type addressedMessage struct {
	clientID string
	msg      WebSocketMessage
}

var wsHub *WebSocketHub

// NewWebSocketHub creates a hub that pushes source's payload every interval
func NewWebSocketHub(interval time.Duration, source StatsSource) *WebSocketHub {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		broadcast:  make(chan WebSocketMessage, 16),
		direct:     make(chan addressedMessage, 16),
		done:       make(chan struct{}),
		interval:   interval,
		source:     source,
	}
}

// InitWebSocketHub starts the shared hub broadcasting system status until ctx is done
func InitWebSocketHub(ctx context.Context, interval time.Duration) *WebSocketHub {
	wsHub = NewWebSocketHub(interval, func(ctx context.Context) (interface{}, error) {
		return GetSystemStatus(ctx)
	})
	go wsHub.Run(ctx)
	return wsHub
}

// GetWebSocketHub returns the shared hub
func GetWebSocketHub() *WebSocketHub {
	return wsHub
}

// Run manages the hub's event loop until ctx is done
func (h *WebSocketHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			log.WithField("client", client.ID).Infof("WebSocket client connected (total: %d)", count)

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.WithField("client", clientID).Infof("WebSocket client disconnected (total: %d)", count)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case m := <-h.direct:
			h.mu.RLock()
			if client, exists := h.clients[m.clientID]; exists {
				select {
				case client.Send <- m.msg:
				default:
				}
			}
			h.mu.RUnlock()

		case <-ticker.C:
			if h.ClientCount() == 0 || !h.gathering.CompareAndSwap(false, true) {
				continue
			}
			// a slow source must not stall register and unregister
			go func() {
				defer h.gathering.Store(false)
				msg := h.gather(ctx)
				select {
				case h.broadcast <- msg:
				case <-h.done:
				}
			}()
		}
	}
}

func (h *WebSocketHub) gather(ctx context.Context) WebSocketMessage {
	payload, err := h.source(ctx)
	if err != nil {
		return WebSocketMessage{Type: MessageError, Timestamp: time.Now(), Error: err.Error()}
	}
	return WebSocketMessage{Type: MessageStats, Timestamp: time.Now(), Data: payload}
}

func (h *WebSocketHub) fanOut(msg WebSocketMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			// slow client, drop this message
		}
	}
}

func (h *WebSocketHub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// Register adds a new client to the hub and sends it an immediate snapshot
func (h *WebSocketHub) Register(ctx context.Context, client *ClientConnection) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
		return
	}

	select {
	case h.broadcast <- h.gather(ctx):
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// SendTo queues msg for a single client. Only the hub writes to Send channels.
func (h *WebSocketHub) SendTo(clientID string, msg WebSocketMessage) {
	select {
	case h.direct <- addressedMessage{clientID: clientID, msg: msg}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
