// Package bus provides the in-process message bus connecting the
// platform channel, the dispatcher, and the control-channel gateway.
// Inbound messages flow through a single buffered queue; events fan out
// to registered subscribers.
package bus

import (
	"context"
	"log/slog"
	"sync"
)

const inboundBuffer = 256

// MessageBus is the concrete queue + broadcaster. Safe for concurrent use.
type MessageBus struct {
	inbound chan InboundMessage

	mu          sync.RWMutex
	subscribers map[string]EventHandler
}

// New creates a MessageBus.
func New() *MessageBus {
	return &MessageBus{
		inbound:     make(chan InboundMessage, inboundBuffer),
		subscribers: make(map[string]EventHandler),
	}
}

// PublishInbound enqueues a message for the dispatcher. If the queue is
// full the message is dropped; the platform re-delivers nothing, so drop
// loudly rather than block the channel's read loop.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	select {
	case b.inbound <- msg:
	default:
		slog.Warn("inbound queue full, dropping message",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
		)
	}
}

// ConsumeInbound blocks until a message is available or ctx is done.
// The second return is false when ctx was cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

// Subscribe registers an event handler under an id, replacing any
// previous handler with the same id.
func (b *MessageBus) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes a handler.
func (b *MessageBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast delivers an event to every subscriber. Handlers run on the
// caller's goroutine and must not block.
func (b *MessageBus) Broadcast(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
