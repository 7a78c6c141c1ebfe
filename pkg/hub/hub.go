// Package hub fans dashboard messages out to websocket clients. One Run
// goroutine owns the client set; slow clients are dropped, not waited on.
package hub

import (
	"context"
	"fmt"
	"sync"
)

// Handler receives text messages sent by clients.
type Handler func(data []byte)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Last broadcast, replayed to new clients when retain is set
	retain bool
	last   *Message

	// Called for every text message a client sends
	onMessage Handler

	// Protects clients, last and onMessage for readers outside Run
	mu sync.RWMutex

	running bool
	done    chan struct{}
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// NewRetained creates a hub that replays its last message to each new client.
// Used for status feeds so a freshly opened dashboard is not blank.
func NewRetained(name string) *Hub {
	h := New(name)
	h.retain = true
	return h
}

// OnMessage sets the handler for client text messages.
func (h *Hub) OnMessage(fn Handler) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

func (h *Hub) handler() Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onMessage
}

// Run starts the hub's main loop and returns when ctx is cancelled.
// This should be called in a goroutine
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.running = false
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			if h.retain && h.last != nil {
				client.send <- *h.last
			}
			h.mu.Unlock()
			fmt.Printf("🔌 [%s] Client connected (%d total)\n", h.name, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			fmt.Printf("🔌 [%s] Client disconnected (%d remaining)\n", h.name, count)

		case message := <-h.broadcast:
			h.mu.Lock()
			if h.retain {
				m := message
				h.last = &m
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					fmt.Printf("⚠️  [%s] Dropped slow client\n", h.name)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed after Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		fmt.Printf("⚠️  [%s] Broadcast channel full, dropping message\n", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	msg, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
