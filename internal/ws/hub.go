package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/emilythestrangee/devqna/backend/internal/models"
)

// pushEnvelope is the wire shape of a notification push. Clients treat it
// as a hint to re-fetch, not as the source of truth.
type pushEnvelope struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

type pushMessage struct {
	targetUserID int
	payload      []byte
}

// Hub maintains the set of active clients keyed by user and fans each
// pushed notification out to every live connection of the target user.
type Hub struct {
	clients map[int]map[*Client]bool

	push       chan *pushMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		push:       make(chan *pushMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's processing loop. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			log.Printf("ws: client %s registered for user %d (%d connections)", client.SessionID, client.UserID, len(h.clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if userClients, ok := h.clients[client.UserID]; ok {
				if _, connected := userClients[client]; connected {
					delete(userClients, client)
					close(client.Send)
					if len(userClients) == 0 {
						delete(h.clients, client.UserID)
					}
					log.Printf("ws: client %s unregistered for user %d", client.SessionID, client.UserID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.push:
			h.mu.RLock()
			for client := range h.clients[msg.targetUserID] {
				select {
				case client.Send <- msg.payload:
				default:
					// Slow client: drop the push, the poll API reconciles.
					log.Printf("ws: send buffer full for client %s of user %d, push dropped", client.SessionID, client.UserID)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, userClients := range h.clients {
				for client := range userClients {
					close(client.Send)
				}
			}
			h.clients = make(map[int]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts down the hub loop and releases every client send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Deliver queues a notification push for every live session of the
// recipient. Best-effort: if the hub is saturated the push is dropped.
// Implements notifications.Sink.
func (h *Hub) Deliver(n models.Notification) {
	payload, err := json.Marshal(pushEnvelope{Type: "notification", Notification: n})
	if err != nil {
		log.Printf("ws: failed to marshal notification %d: %v", n.ID, err)
		return
	}

	select {
	case h.push <- &pushMessage{targetUserID: n.UserID, payload: payload}:
	case <-time.After(time.Second):
		log.Printf("ws: timeout queuing push for user %d", n.UserID)
	}
}

// ConnectionsFor reports how many live connections a user has.
func (h *Hub) ConnectionsFor(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
