// Package channels provides the platform-channel abstraction connecting
// the external messaging bridge to the message bus.
package channels

import (
	"context"
	"strings"

	"github.com/namvu/quizbridge/internal/bus"
)

// DMPolicy controls how direct messages from unknown senders are handled.
type DMPolicy string

const (
	DMPolicyOpen      DMPolicy = "open"
	DMPolicyAllowlist DMPolicy = "allowlist"
	DMPolicyDisabled  DMPolicy = "disabled"
)

// GroupPolicy controls how group messages are handled.
type GroupPolicy string

const (
	GroupPolicyOpen      GroupPolicy = "open"
	GroupPolicyAllowlist GroupPolicy = "allowlist"
	GroupPolicyDisabled  GroupPolicy = "disabled"
)

// Channel is the interface platform channel implementations satisfy.
type Channel interface {
	// Name returns the channel identifier (e.g. "whatsapp").
	Name() string

	// Start begins listening for messages. Non-blocking after setup.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop(ctx context.Context) error

	// Send delivers an outbound message.
	Send(ctx context.Context, msg bus.OutboundMessage) error

	// IsRunning reports whether the channel is processing messages.
	IsRunning() bool
}

// BaseChannel provides shared functionality for channel implementations.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	running   bool
	allowList []string
}

// NewBaseChannel creates a BaseChannel.
func NewBaseChannel(name string, msgBus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{name: name, bus: msgBus, allowList: allowList}
}

// Name returns the channel name.
func (c *BaseChannel) Name() string { return c.name }

// IsRunning returns whether the channel is running.
func (c *BaseChannel) IsRunning() bool { return c.running }

// SetRunning updates the running state.
func (c *BaseChannel) SetRunning(running bool) { c.running = running }

// Bus returns the message bus reference.
func (c *BaseChannel) Bus() *bus.MessageBus { return c.bus }

// IsAllowed checks a sender against the allowlist. An empty allowlist
// allows everyone. Entries match on the full address or its user part.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}

	idPart := senderID
	if idx := strings.IndexByte(senderID, '@'); idx > 0 {
		idPart = senderID[:idx]
	}
	for _, allowed := range c.allowList {
		if senderID == allowed || idPart == allowed {
			return true
		}
	}
	return false
}

// CheckPolicy evaluates the DM/group policy for a message.
// peerKind is "direct" or "group"; empty policies default to open.
func (c *BaseChannel) CheckPolicy(peerKind, dmPolicy, groupPolicy, senderID string) bool {
	policy := dmPolicy
	if peerKind == "group" {
		policy = groupPolicy
	}

	switch policy {
	case "disabled":
		return false
	case "allowlist":
		return c.IsAllowed(senderID)
	default: // "open" or unset
		return true
	}
}

// HandleMessage publishes an inbound message to the bus after the
// allowlist check. This is the standard way for channels to forward
// received messages.
func (c *BaseChannel) HandleMessage(senderID, chatID, content, messageID string, mentions []string, metadata map[string]string, peerKind string) {
	if !c.IsAllowed(senderID) {
		return
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:   c.name,
		SenderID:  senderID,
		ChatID:    chatID,
		Content:   content,
		MessageID: messageID,
		Mentions:  mentions,
		PeerKind:  peerKind,
		Metadata:  metadata,
	})
}

// Truncate shortens a string to maxLen, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
