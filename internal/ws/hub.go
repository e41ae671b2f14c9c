package ws

import (
	"encoding/json"
	"fmt"
	"sync"
)

// VendorChannel is the private channel of one vendor.
func VendorChannel(vendorID uint) string {
	return fmt.Sprintf("vendor:%d", vendorID)
}

// Client represents a single WebSocket connection subscribed to one or more channels.
type Client struct {
	UserID   uint
	Role     string
	Channels []string
	Send     chan []byte
	Hub      *Hub
	mu       sync.Mutex
	closed   bool
}

func NewClient(userID uint, role string, channels ...string) *Client {
	return &Client{
		UserID:   userID,
		Role:     role,
		Channels: channels,
		Send:     make(chan []byte, 256),
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
	close(c.Send)
}

// Hub maintains the set of active clients and broadcasts to them by channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// channel -> clients (a vendor may hold several connections)
	byChannel map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		byChannel: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	for _, ch := range c.Channels {
		if h.byChannel[ch] == nil {
			h.byChannel[ch] = make(map[*Client]struct{})
		}
		h.byChannel[ch][c] = struct{}{}
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	for _, ch := range c.Channels {
		if m := h.byChannel[ch]; m != nil {
			delete(m, c)
			if len(m) == 0 {
				delete(h.byChannel, ch)
			}
		}
	}
}

// Broadcast delivers payload to every client on channel. Slow clients are skipped.
func (h *Hub) Broadcast(channel string, payload interface{}) int {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	m := h.byChannel[channel]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.deliver(data) {
			sent++
		}
	}
	return sent
}

func (c *Client) deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
