package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/bionic-eye/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// A retaining hub replays its latest message to every client that joins,
// so a viewer sees the current frame without waiting for the next pass.
type Hub struct {
	name   string
	retain bool

	// Registered clients, owned by Run
	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	// latest is the last broadcast message when retain is set
	latest   Message
	latestMu sync.RWMutex
	hasLast  bool

	count   atomic.Int32
	dropped atomic.Uint64
	running atomic.Bool
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// NewRetaining creates a Hub that replays the latest message to new clients
func NewRetaining(name string) *Hub {
	h := New(name)
	h.retain = true
	return h
}

// Run starts the hub's main loop until ctx is done.
// This should be called in a goroutine
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	l := log.With("hub", h.name)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.count.Store(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
			if last, ok := h.Latest(); ok {
				select {
				case client.send <- last:
				default:
				}
			}
			l.Debug("client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(int32(len(h.clients)))
			l.Debug("client disconnected", "clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					l.Warn("dropped slow client")
				}
			}
			h.count.Store(int32(len(h.clients)))
		}
	}
}

// Broadcast sends a message to all connected clients. It never blocks.
func (h *Hub) Broadcast(msg Message) {
	if h.retain {
		h.latestMu.Lock()
		h.latest, h.hasLast = msg, true
		h.latestMu.Unlock()
	}

	select {
	case h.broadcast <- msg:
	default:
		// Broadcast channel full - drop message
		h.dropped.Add(1)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., output frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// Latest returns the retained message, if any
func (h *Hub) Latest() (Message, bool) {
	h.latestMu.RLock()
	defer h.latestMu.RUnlock()
	return h.latest, h.hasLast
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns how many broadcasts were discarded because the queue was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}
