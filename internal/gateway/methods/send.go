package methods

import (
	"context"
	"encoding/json"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/internal/channels"
	"github.com/namvu/quizbridge/internal/gateway"
	"github.com/namvu/quizbridge/pkg/protocol"
)

// SendMethods lets control clients push outbound messages to a channel.
type SendMethods struct {
	channel channels.Channel
}

// NewSendMethods creates the send method handlers.
func NewSendMethods(channel channels.Channel) *SendMethods {
	return &SendMethods{channel: channel}
}

// Register installs the handlers on the router.
func (m *SendMethods) Register(router *gateway.MethodRouter) {
	router.Register(protocol.MethodSend, m.handleSend)
}

type sendParams struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
	ReplyTo string `json:"reply_to_message_id,omitempty"`
}

func (m *SendMethods) handleSend(ctx context.Context, _ *gateway.Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	var params sendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid send params")
	}
	if params.ChatID == "" || params.Content == "" {
		return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "chat_id and content are required")
	}

	msg := bus.OutboundMessage{
		Channel: m.channel.Name(),
		ChatID:  params.ChatID,
		Content: params.Content,
		ReplyTo: params.ReplyTo,
	}
	if err := m.channel.Send(ctx, msg); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrUnavailable, err.Error())
	}

	return protocol.NewOKResponse(req.ID, map[string]interface{}{"sent": true})
}
