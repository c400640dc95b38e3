package ws

import (
	"sync"

	"todo_backend/internal/dispatcher"
	"todo_backend/internal/logger"
)

// Hub is the connection registry: it maps a user ID to that user's live
// sessions. A user may hold several sessions at once (multiple tabs or
// devices); events fan out to all of them. The hub is constructed at process
// start and injected wherever sessions need to be resolved; it is not
// global state.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes connect/disconnect events. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.Register(client)
		case client := <-h.unregister:
			h.Unregister(client)
		case <-h.done:
			return
		}
	}
}

// Stop terminates the Run loop and closes every live session.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.sessions {
		for client := range clients {
			client.closeSend()
		}
	}
	h.sessions = make(map[string]map[*Client]bool)
}

// Register adds a session for its user.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.UserID]
	if !ok {
		clients = make(map[*Client]bool)
		h.sessions[client.UserID] = clients
	}
	clients[client] = true
	logger.Debug("ws client registered", "user_id", client.UserID, "sessions", len(clients))
}

// Unregister removes exactly the given session. A stale disconnect racing a
// fresh connect cannot evict the new session because membership is checked
// per client, not per user.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	client.closeSend()
	if len(clients) == 0 {
		delete(h.sessions, client.UserID)
	}
	logger.Debug("ws client unregistered", "user_id", client.UserID, "sessions", len(clients))
}

// Sessions implements dispatcher.Registry.
func (h *Hub) Sessions(ownerID string) []dispatcher.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.sessions[ownerID]
	if !ok {
		return nil
	}
	sessions := make([]dispatcher.Session, 0, len(clients))
	for client := range clients {
		sessions = append(sessions, client)
	}
	return sessions
}
