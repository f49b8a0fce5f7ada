package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"afriotv/internal/docstore"
	"afriotv/internal/live"

	"github.com/gorilla/websocket"
)

// One client per connection, serving one live query.

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time write a message to the peer
	PongWait       = 60 * time.Second    // max time to wait for pong from peer => no pong = no connection
	PingPeriod     = (PongWait * 9) / 10 // send pings at 90% of pong wait to allow for network jitter
	MaxMessageSize = 512                 // maximum message size allowed from peer
	sendBuffer     = 16
)

var ErrClientClosed = errors.New("websocket client closed")

type outbound struct {
	data  []byte
	final bool // close the connection once written
}

type Client struct {
	ID          string          // unique client ID
	UserID      string          // empty for anonymous readers
	Path        string          // document or collection being watched
	Conn        *websocket.Conn // WebSocket connection
	SendChannel chan outbound   // channel for outbound(chan <-) messages
	Hub         *Hub            // reference to the central Hub

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	stop      func()
}

// constructor new client
func NewClient(id, userID, path string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		Path:        path,
		Conn:        conn,
		SendChannel: make(chan outbound, sendBuffer),
		Hub:         hub,
		done:        make(chan struct{}),
	}
}

// Serve subscribes to q and forwards every snapshot. A failed query sends
// one error frame and ends the connection.
func (c *Client) Serve(q live.Subscribable[docstore.Snapshot], collection bool) {
	stop := q.Subscribe(func(s docstore.Snapshot) {
		frame, err := NewSnapshotFrame(s)
		if err != nil {
			c.fail(collection, err)
			return
		}
		data, err := frame.ToJSON()
		if err != nil {
			return
		}
		if err := c.SendMessage(data); err != nil {
			slog.Warn("live_frame_dropped", "client_id", c.ID, "path", c.Path, "error", err)
		}
	}, func(err error) {
		c.fail(collection, err)
	})

	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()

	select {
	case <-c.done:
		// closed while subscribing
		stop()
	default:
	}
}

func (c *Client) fail(collection bool, err error) {
	data, merr := NewErrorFrame(c.Path, collection, err).ToJSON()
	if merr != nil {
		c.Close()
		return
	}
	select {
	case c.SendChannel <- outbound{data: data, final: true}:
	case <-c.done:
	}
}

// ReadPump reads until the peer goes away. Clients never send frames, but
// reading is what processes pongs and close messages.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket_read_failed", "client_id", c.ID, "error", err)
			}
			return
		}
	}
}

// WritePump writes frames and pings. It owns all writes to Conn.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.SendChannel:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				c.Close()
				return
			}
			if msg.final {
				c.writeClose(websocket.ClosePolicyViolation)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.writeClose(websocket.CloseNormalClosure)
			return
		}
	}
}

func (c *Client) writeClose(code int) {
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(WriteWait))
}

// SendMessage queues a frame without blocking. A client that cannot keep
// up is disconnected.
func (c *Client) SendMessage(message []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.SendChannel <- outbound{data: message}:
		return nil
	default:
		c.Close()
		return errors.New("send buffer full")
	}
}

// Close releases the live query and stops the pumps. Safe to call more
// than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		stop := c.stop
		c.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
	return nil
}
