package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MaxConnectionsPerUser caps how many editors may watch one graph
const MaxConnectionsPerUser = 10

// Server upgrades HTTP requests into hub clients
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a server. checkOrigin may be nil to accept any origin.
func NewServer(hub *Hub, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Server {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Serve upgrades the request for username, who must already be
// authenticated. snapshot, when not nil, is sent as the first GRAPH
// message.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, username string, snapshot interface{}) {
	if s.hub.ConnectionCount(username) >= MaxConnectionsPerUser {
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.String("username", username), zap.Error(err))
		return
	}

	c := newClient(username, s.hub, conn, s.logger)
	initial := [][]byte{mustFrame(MessageConnected, map[string]string{"connectionId": c.id, "username": username})}
	if snapshot != nil {
		initial = append(initial, mustFrame(MessageGraph, snapshot))
	}
	c.start(initial...)
}

func mustFrame(messageType string, data interface{}) []byte {
	raw, _ := json.Marshal(data)
	frame, _ := json.Marshal(BroadcastMessage{Type: messageType, Data: raw, Timestamp: time.Now().Unix()})
	return frame
}
