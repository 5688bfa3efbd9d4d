// Package whatsapp connects to a WhatsApp bridge via WebSocket.
// The bridge owns the actual WhatsApp session (pairing, QR, retries);
// this channel just exchanges JSON frames with it: inbound messages and
// contact syncs in, outbound messages and reactions out.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/internal/channels"
	"github.com/namvu/quizbridge/internal/config"
	"github.com/namvu/quizbridge/internal/identity"
	"github.com/namvu/quizbridge/internal/store"
	"github.com/namvu/quizbridge/pkg/protocol"
)

// inboundFrame is what the bridge sends us.
type inboundFrame struct {
	Type     string   `json:"type"`
	From     string   `json:"from,omitempty"`
	FromName string   `json:"from_name,omitempty"`
	FromMe   bool     `json:"from_me,omitempty"`
	Chat     string   `json:"chat,omitempty"`
	Content  string   `json:"content,omitempty"`
	ID       string   `json:"id,omitempty"`
	Mentions []string `json:"mentions,omitempty"`

	// ready frames
	Self string `json:"self,omitempty"`

	// contact frames
	LID   string `json:"lid,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type statusPayload struct {
	Connected bool   `json:"connected"`
	Self      string `json:"self,omitempty"`
}

// Channel is the WhatsApp bridge channel. It satisfies channels.Channel
// and the quiz engine's transport capability (SendMessage/SendReaction).
type Channel struct {
	*channels.BaseChannel
	config    config.WhatsAppConfig
	directory store.Directory

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	selfAddr  string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a WhatsApp channel from config. dir may be nil; contact
// sync frames are then ignored.
func New(cfg config.WhatsAppConfig, msgBus *bus.MessageBus, dir store.Directory) (*Channel, error) {
	if cfg.BridgeURL == "" {
		return nil, fmt.Errorf("whatsapp bridge_url is required")
	}

	return &Channel{
		BaseChannel: channels.NewBaseChannel("whatsapp", msgBus, cfg.AllowFrom),
		config:      cfg,
		directory:   dir,
	}, nil
}

// Start connects to the bridge WebSocket and begins listening.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting whatsapp channel", "bridge_url", c.config.BridgeURL)

	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.connect(); err != nil {
		// Don't fail hard — the listen loop keeps retrying.
		slog.Warn("initial bridge connection failed, will retry", "error", err)
	}

	go c.listenLoop()

	c.SetRunning(true)
	return nil
}

// Stop gracefully shuts down the channel.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping whatsapp channel")

	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.SetRunning(false)
	return nil
}

// BotAddress returns the bot's own platform address: the one announced
// by the bridge's ready frame, or the configured fallback.
func (c *Channel) BotAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selfAddr != "" {
		return c.selfAddr
	}
	return c.config.BotAddress
}

// Connected reports whether the bridge socket is currently up.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send delivers an outbound message to the bridge.
func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	payload := map[string]interface{}{
		"type":    "message",
		"to":      msg.ChatID,
		"content": msg.Content,
	}
	if msg.ReplyTo != "" {
		payload["reply_to"] = msg.ReplyTo
	}
	return c.writeFrame(payload)
}

// SendMessage sends plain text to a chat.
func (c *Channel) SendMessage(ctx context.Context, to, text string) error {
	return c.Send(ctx, bus.OutboundMessage{Channel: c.Name(), ChatID: to, Content: text})
}

// SendReaction reacts to a message in a chat with an emoji.
func (c *Channel) SendReaction(_ context.Context, to, messageID, emoji string) error {
	return c.writeFrame(map[string]interface{}{
		"type":       "reaction",
		"to":         to,
		"message_id": messageID,
		"emoji":      emoji,
	})
}

// writeFrame marshals and writes one frame under the connection lock.
func (c *Channel) writeFrame(payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal bridge frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("whatsapp bridge not connected")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write bridge frame: %w", err)
	}
	return nil
}

// connect establishes the WebSocket connection to the bridge.
func (c *Channel) connect() error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.config.BridgeURL, nil)
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", c.config.BridgeURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	slog.Info("whatsapp bridge connected", "url", c.config.BridgeURL)
	c.Bus().Broadcast(bus.Event{
		Name:    protocol.EventStatus,
		Payload: statusPayload{Connected: true, Self: c.BotAddress()},
	})
	return nil
}

// listenLoop reads frames from the bridge with automatic reconnection.
func (c *Channel) listenLoop() {
	backoff := time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			slog.Info("attempting bridge reconnect", "backoff", backoff)

			select {
			case <-c.ctx.Done():
				return
			case <-time.After(backoff):
			}

			if err := c.connect(); err != nil {
				slog.Warn("bridge reconnect failed", "error", err)
				backoff = min(backoff*2, 30*time.Second)
				continue
			}
			backoff = time.Second
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("bridge read error, will reconnect", "error", err)

			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.connected = false
			c.mu.Unlock()

			c.Bus().Broadcast(bus.Event{
				Name:    protocol.EventStatus,
				Payload: statusPayload{Connected: false},
			})
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("invalid bridge frame", "error", err)
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Channel) handleFrame(frame inboundFrame) {
	switch frame.Type {
	case "message":
		c.handleIncomingMessage(frame)
	case "ready":
		c.handleReady(frame)
	case "contact":
		c.handleContact(frame)
	}
}

// handleIncomingMessage validates an inbound chat message and publishes
// it to the bus. Messages without extractable text never reach the
// dispatcher.
func (c *Channel) handleIncomingMessage(frame inboundFrame) {
	if frame.From == "" || frame.FromMe {
		return
	}

	chatID := frame.Chat
	if chatID == "" {
		chatID = frame.From
	}

	peerKind := "direct"
	if identity.IsGroup(chatID) {
		peerKind = "group"
	}

	if !c.CheckPolicy(peerKind, c.config.DMPolicy, c.config.GroupPolicy, frame.From) {
		slog.Debug("message rejected by policy", "sender_id", frame.From, "peer_kind", peerKind)
		return
	}

	if frame.Content == "" {
		return
	}

	metadata := map[string]string{}
	if frame.FromName != "" {
		metadata["user_name"] = frame.FromName
	}

	slog.Debug("whatsapp message received",
		"sender_id", frame.From,
		"chat_id", chatID,
		"mentions", len(frame.Mentions),
		"preview", channels.Truncate(frame.Content, 50),
	)

	c.HandleMessage(frame.From, chatID, frame.Content, frame.ID, frame.Mentions, metadata, peerKind)
}

// handleReady records the bot's own address announced by the bridge.
func (c *Channel) handleReady(frame inboundFrame) {
	if frame.Self == "" {
		return
	}

	c.mu.Lock()
	c.selfAddr = frame.Self
	c.mu.Unlock()

	slog.Info("bridge ready", "self", frame.Self)
	c.Bus().Broadcast(bus.Event{
		Name:    protocol.EventStatus,
		Payload: statusPayload{Connected: true, Self: frame.Self},
	})
}

// handleContact feeds a lid→phone mapping into the identity directory.
func (c *Channel) handleContact(frame inboundFrame) {
	if c.directory == nil || frame.LID == "" || frame.Phone == "" {
		return
	}

	lid := identity.Canonical(frame.LID)
	phone := identity.Canonical(frame.Phone)
	if lid == "" || phone == "" {
		return
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.directory.Upsert(ctx, lid, phone); err != nil {
		slog.Warn("contact sync failed", "lid", lid, "error", err)
	}
}
