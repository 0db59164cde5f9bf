package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The feed is one-way; clients
	// only send control frames.
	maxMessageSize = 4 * 1024
)

// Client is one connected dashboard session.
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	hub *Hub

	ctx    context.Context
	cancel context.CancelFunc

	id       string
	username string
}

// NewClient wraps an upgraded connection.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, id, username string) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      hub,
		ctx:      clientCtx,
		cancel:   cancel,
		id:       id,
		username: username,
	}
}

// ReadPump drains the connection so close and pong frames are processed.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.StdLogger().Warn("websocket read error", "client", c.id, "error", err)
				}
				return
			}
		}
	}
}

// WritePump pumps broadcast frames from the hub to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued frames into the same websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears down the client.
func (c *Client) Close() {
	c.cancel()
}
