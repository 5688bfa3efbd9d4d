package bus

import "context"

// InboundMessage represents a message received from the platform channel.
type InboundMessage struct {
	Channel   string            `json:"channel"`
	SenderID  string            `json:"sender_id"`
	ChatID    string            `json:"chat_id"`
	Content   string            `json:"content"`
	MessageID string            `json:"message_id,omitempty"`
	PeerKind  string            `json:"peer_kind,omitempty"` // "direct" or "group"
	Mentions  []string          `json:"mentions,omitempty"`  // raw addresses tagged in a group message
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage represents a message to be sent to the platform channel.
type OutboundMessage struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
	// ReplyTo optionally anchors the message to an existing message id.
	ReplyTo string `json:"reply_to,omitempty"`
}

// Event represents a server-side event to broadcast to control-channel clients.
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventHandler handles a broadcast event.
type EventHandler func(Event)

// EventPublisher abstracts event broadcast + subscription.
// Used by the gateway server and the quiz engine to decouple from the
// concrete MessageBus.
type EventPublisher interface {
	Subscribe(id string, handler EventHandler)
	Unsubscribe(id string)
	Broadcast(event Event)
}

// InboundQueue abstracts the inbound side of the bus for the dispatcher.
type InboundQueue interface {
	PublishInbound(msg InboundMessage)
	ConsumeInbound(ctx context.Context) (InboundMessage, bool)
}
