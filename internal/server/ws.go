package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/stretchcam/internal/log"
)

const (
	// clientBuffer is how many messages may queue for a slow client before
	// newer ones are dropped.
	clientBuffer = 8
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Hub broadcasts live stats to websocket clients. Publish never blocks the
// caller: messages for a client whose queue is full are dropped.
type Hub struct {
	clients map[*websocket.Conn]chan []byte
	last    []byte
	dropped atomic.Uint64
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]chan []byte)}
}

// Publish sends v as JSON to every connected client. New clients receive the
// most recent message on connect.
func (h *Hub) Publish(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to encode stats", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for _, queue := range h.clients {
		select {
		case queue <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages slow clients have missed.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	queue := make(chan []byte, clientBuffer)

	h.mu.Lock()
	if h.last != nil {
		queue <- h.last
	}
	h.clients[conn] = queue
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reads only detect the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-queue:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
