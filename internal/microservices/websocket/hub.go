package websocket

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Hub tracks every open live-query connection so they can be closed on
// shutdown. Only Run touches the client set; everything else goes
// through the channels.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	clients map[*Client]struct{}
	done    chan struct{}
	active  atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.Register:
			h.clients[c] = struct{}{}
			h.active.Add(1)
			slog.Debug("live_client_registered", "client_id", c.ID, "path", c.Path, "user_id", c.UserID)
		case c := <-h.Unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				h.active.Add(-1)
				slog.Debug("live_client_unregistered", "client_id", c.ID)
			}
		case <-ctx.Done():
			slog.Info("live_hub_stopping", "clients", len(h.clients))
			for c := range h.clients {
				c.Close()
			}
			h.clients = map[*Client]struct{}{}
			h.active.Store(0)
			return
		}
	}
}

// Count is the number of registered clients.
func (h *Hub) Count() int {
	return int(h.active.Load())
}

func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
