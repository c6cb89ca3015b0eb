// Package websocket pushes session snapshots and notifications to the
// editors watching a user's graph.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cognitivediary/application/ports"
	"cognitivediary/domain/core/aggregates"
	"cognitivediary/pkg/api"

	"go.uber.org/zap"
)

// Message types pushed to clients
const (
	MessageConnected    = "CONNECTION_ESTABLISHED"
	MessageGraph        = "GRAPH"
	MessageNotification = "NOTIFICATION"
	MessagePing         = "PING"
)

// Hub maintains active connections grouped by username
type Hub struct {
	connections map[string]map[*Client]bool
	mu          sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger *zap.Logger

	metrics HubMetrics
}

// HubMetrics tracks delivery counts
type HubMetrics struct {
	ActiveConnections int64
	MessagesSent      int64
	MessagesDropped   int64
}

// BroadcastMessage is one message for every connection of a user
type BroadcastMessage struct {
	Username  string          `json:"-"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

var _ ports.Notifier = (*Hub)(nil)

// NewHub creates a hub; call Run to start it
func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections: make(map[string]map[*Client]bool),
		register:    make(chan *Client, 100),
		unregister:  make(chan *Client, 100),
		broadcast:   make(chan *BroadcastMessage, 1000),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run is the hub's event loop
func (h *Hub) Run() {
	defer close(h.done)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.closeAllConnections()
			h.logger.Info("Hub stopped")
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastToUser(message)
		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop shuts the hub down and waits for the loop to exit
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

// SendToUser queues a message for every connection of username. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) SendToUser(username, messageType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.String("type", messageType), zap.Error(err))
		return
	}
	msg := &BroadcastMessage{Username: username, Type: messageType, Data: raw, Timestamp: time.Now().Unix()}
	select {
	case h.broadcast <- msg:
	default:
		h.mu.Lock()
		h.metrics.MessagesDropped++
		h.mu.Unlock()
		h.logger.Warn("Broadcast queue full, message dropped",
			zap.String("username", username),
			zap.String("type", messageType))
	}
}

// Notify implements ports.Notifier
func (h *Hub) Notify(ctx context.Context, username string, n ports.Notification) {
	h.SendToUser(username, MessageNotification, n)
}

// GraphChanged implements ports.Notifier
func (h *Hub) GraphChanged(ctx context.Context, username string, g *aggregates.Graph) {
	if !h.HasConnections(username) {
		return
	}
	h.SendToUser(username, MessageGraph, GraphPayload(username, g))
}

// GraphPayload renders g for the wire
func GraphPayload(username string, g *aggregates.Graph) api.GraphResponse {
	nodes, edges := api.FromGraph(g)
	return api.GraphResponse{Username: username, Version: g.Version(), Nodes: nodes, Edges: edges}
}

// HasConnections reports whether anyone is watching username
func (h *Hub) HasConnections(username string) bool {
	return h.ConnectionCount(username) > 0
}

// ConnectionCount returns the number of connections of username
func (h *Hub) ConnectionCount(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[username])
}

// Metrics returns a copy of the delivery counters
func (h *Hub) Metrics() HubMetrics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.metrics
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[c.username] == nil {
		h.connections[c.username] = make(map[*Client]bool)
	}
	h.connections[c.username][c] = true
	h.metrics.ActiveConnections++
	h.logger.Info("Client registered",
		zap.String("username", c.username),
		zap.String("connection_id", c.id),
		zap.Int("user_connections", len(h.connections[c.username])))
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.connections[c.username]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.connections, c.username)
	}
	h.metrics.ActiveConnections--
	h.logger.Info("Client unregistered",
		zap.String("username", c.username),
		zap.String("connection_id", c.id))
}

func (h *Hub) broadcastToUser(msg *BroadcastMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections[msg.Username] {
		select {
		case c.send <- data:
			h.metrics.MessagesSent++
		default:
			h.metrics.MessagesDropped++
			h.logger.Warn("Closing slow client",
				zap.String("username", c.username),
				zap.String("connection_id", c.id))
			go c.conn.Close()
		}
	}
}

func (h *Hub) ping() {
	data, _ := json.Marshal(BroadcastMessage{Type: MessagePing, Timestamp: time.Now().Unix()})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.connections {
		for c := range clients {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for username, clients := range h.connections {
		for c := range clients {
			close(c.send)
			c.conn.Close()
		}
		delete(h.connections, username)
	}
	h.metrics.ActiveConnections = 0
}

// enqueue hands a client to the loop unless the hub has stopped
func (h *Hub) enqueue(ch chan *Client, c *Client) bool {
	select {
	case ch <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}
