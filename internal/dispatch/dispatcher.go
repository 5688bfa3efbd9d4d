// Package dispatch routes inbound platform messages: private messages
// and group messages that mention the bot go to the agent over the
// control channel; the rest of the group traffic is offered to the quiz
// engine as candidate answers.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/internal/identity"
	"github.com/namvu/quizbridge/internal/quiz"
	"github.com/namvu/quizbridge/pkg/protocol"
)

// PeerKind values carried on inbound messages.
const (
	PeerDirect = "direct"
	PeerGroup  = "group"
)

// Dispatcher consumes the inbound queue on a single goroutine, so each
// message's mention evaluation and answer check completes before the
// next message is examined.
type Dispatcher struct {
	queue   bus.InboundQueue
	events  bus.EventPublisher
	filter  *identity.MentionFilter
	engine  *quiz.Engine
	botAddr func() string
}

// New creates a Dispatcher. botAddr is called per message because the
// channel learns its own address from the bridge at runtime.
func New(queue bus.InboundQueue, events bus.EventPublisher, filter *identity.MentionFilter, engine *quiz.Engine, botAddr func() string) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		events:  events,
		filter:  filter,
		engine:  engine,
		botAddr: botAddr,
	}
}

// Run consumes messages until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		msg, ok := d.queue.ConsumeInbound(ctx)
		if !ok {
			return ctx.Err()
		}
		d.Dispatch(ctx, msg)
	}
}

// Dispatch routes one message to exactly one handler: the agent for
// private messages and bot-mentioning group messages, the quiz engine
// for everything else.
func (d *Dispatcher) Dispatch(ctx context.Context, msg bus.InboundMessage) {
	if msg.PeerKind != PeerGroup {
		d.forwardToAgent(msg)
		return
	}

	if d.filter.IsMentioned(ctx, msg.Mentions, d.botAddr()) {
		d.forwardToAgent(msg)
		return
	}

	if err := d.engine.CheckAnswer(ctx, msg.ChatID, msg.Content, msg.MessageID); err != nil {
		slog.Warn("quiz answer handling failed", "chat_id", msg.ChatID, "error", err)
	}
}

func (d *Dispatcher) forwardToAgent(msg bus.InboundMessage) {
	slog.Debug("forwarding message to agent",
		"chat_id", msg.ChatID,
		"peer_kind", msg.PeerKind,
	)
	d.events.Broadcast(bus.Event{Name: protocol.EventMessage, Payload: msg})
}
