package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is one activity item pushed to connected admin dashboards.
type Event struct {
	Type        string    `json:"type"` // order_paid | payout_requested | payout_status
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	At          time.Time `json:"at"`
}

// Client represents a single WebSocket connection.
type Client struct {
	UserID uint
	Send   chan []byte
	hub    *ActivityHub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// ActivityHub fans dashboard activity events out to connected admins.
type ActivityHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{clients: make(map[*Client]struct{})}
}

func (h *ActivityHub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *ActivityHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Broadcast sends the event to every connected client. Slow clients are
// skipped rather than blocking the sender.
func (h *ActivityHub) Broadcast(ev Event) {
	data, _ := json.Marshal(ev)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *ActivityHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
