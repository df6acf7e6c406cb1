// Package realtime maintains the push-messaging channel (chat and
// notification delivery) whose lifetime is bound to the session token.
package realtime

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const closeGracePeriod = time.Second

// Client is a websocket-backed RealtimeConnector. Each Connect opens a
// fresh channel authenticated by the token in the query string; a
// previous connection, if any, is torn down first so at most one channel
// is ever live.
type Client struct {
	endpoint string
	log      zerolog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	socketID string
}

// NewClient returns a Client dialing the given websocket endpoint
// (ws://, wss://, or the http equivalents).
func NewClient(endpoint string, log zerolog.Logger) *Client {
	return &Client{endpoint: endpoint, log: log}
}

func (c *Client) Connect(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("realtime: parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	socketID := uuid.NewString()
	q := u.Query()
	q.Set("token", token)
	q.Set("socket_id", socketID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}

	c.conn = conn
	c.socketID = socketID
	go c.readLoop(conn, socketID)

	c.log.Info().Str("socket_id", socketID).Msg("realtime channel connected")
	return nil
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Connected reports whether a channel is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// readLoop drains inbound frames until the connection dies. The agent
// itself has no use for the payloads (the UI subscribes to them through
// its own channel), but the connection must be read to process control
// frames and to notice a server-side close.
func (c *Client) readLoop(conn *websocket.Conn, socketID string) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Str("socket_id", socketID).Msg("realtime read loop ended")
			return
		}
		c.log.Trace().Int("bytes", len(msg)).Str("socket_id", socketID).Msg("realtime frame received")
	}
}

func (c *Client) closeLocked() {
	if c.conn == nil {
		return
	}
	deadline := time.Now().Add(closeGracePeriod)
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
		deadline,
	)
	_ = c.conn.Close()
	c.conn = nil

	c.log.Info().Str("socket_id", c.socketID).Msg("realtime channel closed")
	c.socketID = ""
}
