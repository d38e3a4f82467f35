// Package realtime fans out JSON frames between live websocket connections.
package realtime

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Hub manages all open connections. Peer frames go to every other connection,
// there are no rooms. Server events addressed to users only reach connections
// that authenticated as one of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("ws hub: client connected (%d total)", n)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		log.Printf("ws hub: client disconnected (%d total)", n)
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// snapshot copies the client set so delivery runs without holding the lock.
func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast queues payload for every open connection except from and returns
// how many accepted it. Closed or backed-up connections are skipped; delivery
// is best effort and at most once.
func (h *Hub) Broadcast(from *Client, payload []byte) int {
	delivered := 0
	for _, c := range h.snapshot() {
		if c == from {
			continue
		}
		if c.enqueue(payload) {
			delivered++
		}
	}
	return delivered
}

// Publish broadcasts a server-originated payload to every connection.
func (h *Hub) Publish(payload []byte) int {
	return h.Broadcast(nil, payload)
}

// PublishToUsers queues payload only for connections authenticated as one of
// userIDs. Anonymous connections never receive it.
func (h *Hub) PublishToUsers(userIDs []uuid.UUID, payload []byte) int {
	allowed := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}

	delivered := 0
	for _, c := range h.snapshot() {
		if c.userID == uuid.Nil {
			continue
		}
		if _, ok := allowed[c.userID]; !ok {
			continue
		}
		if c.enqueue(payload) {
			delivered++
		}
	}
	return delivered
}

// CloseAll closes every open connection with StatusGoingAway. Used on shutdown,
// since hijacked websocket connections outlive http.Server.Shutdown.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		c.close()
		if c.conn != nil {
			go c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}
