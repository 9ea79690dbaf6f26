package web

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard and API are same-origin; requests without an
		// Origin header are non-browser clients.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

// WSMessage is the envelope pushed to dashboard clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager tracks connected dashboard clients and fans refresh events
// out to them.
type WSManager struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewWSManager creates an empty connection manager.
func NewWSManager() *WSManager {
	return &WSManager{clients: make(map[*websocket.Conn]bool)}
}

// HandleWebSocket upgrades the request and registers the client.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	log.Printf("WebSocket connected: %s", conn.RemoteAddr())

	// Reader loop exists only to detect disconnects; clients never send.
	go func() {
		defer m.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastRefresh notifies every client that a new enriched view is
// available.
func (m *WSManager) BroadcastRefresh(generationID string, vulnerabilityCount int, warnings []string) {
	m.broadcast(WSMessage{
		Type: "refresh",
		Payload: map[string]interface{}{
			"generationId":       generationID,
			"vulnerabilityCount": vulnerabilityCount,
			"warnings":           warnings,
			"timestamp":          time.Now().UTC(),
		},
	})
}

func (m *WSManager) broadcast(msg WSMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("WebSocket write failed, dropping client %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

func (m *WSManager) drop(conn *websocket.Conn) {
	conn.Close()
	m.mu.Lock()
	delete(m.clients, conn)
	m.mu.Unlock()
}
