package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/namvu/quizbridge/pkg/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Client represents one connected WebSocket control client.
type Client struct {
	id     string
	conn   *websocket.Conn
	server *Server

	writeMu sync.Mutex

	mu     sync.Mutex
	authed bool
	closed bool
}

// NewClient wraps a WebSocket connection.
func NewClient(conn *websocket.Conn, server *Server) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		server: server,
	}
}

// ID returns the client's connection identifier.
func (c *Client) ID() string { return c.id }

// Authenticated reports whether the client has completed connect auth.
// When no gateway token is configured, every client is authenticated.
func (c *Client) Authenticated() bool {
	if c.server.cfg.Gateway.Token == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

func (c *Client) setAuthenticated() {
	c.mu.Lock()
	c.authed = true
	c.mu.Unlock()
}

// Run reads frames from the connection until it closes.
func (c *Client) Run(ctx context.Context) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("client read error", "id", c.id, "error", err)
			}
			return
		}

		var req protocol.RequestFrame
		if err := json.Unmarshal(data, &req); err != nil || req.Type != protocol.FrameRequest {
			c.SendResponse(*protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "malformed request frame"))
			continue
		}

		c.server.router.Handle(ctx, c, req)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// SendResponse writes a response frame to the client.
func (c *Client) SendResponse(res protocol.ResponseFrame) {
	c.write(res)
}

// SendEvent writes an event frame to the client. Unauthenticated
// clients receive no events.
func (c *Client) SendEvent(event protocol.EventFrame) {
	if !c.Authenticated() {
		return
	}
	c.write(event)
}

func (c *Client) write(v interface{}) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(v); err != nil {
		slog.Debug("client write failed", "id", c.id, "error", err)
	}
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}
