// Package methods registers the domain method handlers on the gateway's
// method router.
package methods

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/namvu/quizbridge/internal/gateway"
	"github.com/namvu/quizbridge/internal/quiz"
	"github.com/namvu/quizbridge/pkg/protocol"
)

// QuizMethods exposes quiz lifecycle control over the gateway.
type QuizMethods struct {
	engine *quiz.Engine
}

// NewQuizMethods creates the quiz method handlers.
func NewQuizMethods(engine *quiz.Engine) *QuizMethods {
	return &QuizMethods{engine: engine}
}

// Register installs the handlers on the router.
func (m *QuizMethods) Register(router *gateway.MethodRouter) {
	router.Register(protocol.MethodQuizStart, m.handleStart)
	router.Register(protocol.MethodQuizEnd, m.handleEnd)
	router.Register(protocol.MethodQuizStatus, m.handleStatus)
}

type quizStartParams struct {
	ChatID   string `json:"chat_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	ReplyTo  string `json:"reply_to_message_id,omitempty"`
}

type quizEndParams struct {
	ChatID string `json:"chat_id,omitempty"`
}

type quizStatusParams struct {
	ChatID string `json:"chat_id,omitempty"`
}

func (m *QuizMethods) handleStart(ctx context.Context, _ *gateway.Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	var params quizStartParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid quiz_start params")
	}
	if params.ChatID == "" || params.Question == "" || params.Answer == "" {
		return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "chat_id, question and answer are required")
	}

	session, err := m.engine.StartQuiz(ctx, params.ChatID, params.Question, params.Answer, params.ReplyTo)
	if err != nil {
		if errors.Is(err, quiz.ErrQuizActive) {
			return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "quiz already active in chat")
		}
		return protocol.NewErrorResponse(req.ID, protocol.ErrUnavailable, err.Error())
	}

	return protocol.NewOKResponse(req.ID, session)
}

// handleEnd cancels the quiz in one chat, or in every chat when chat_id
// is omitted.
func (m *QuizMethods) handleEnd(_ context.Context, _ *gateway.Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	var params quizEndParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid quiz_end params")
		}
	}

	if params.ChatID != "" {
		ended := m.engine.EndQuiz(params.ChatID, quiz.ReasonCancelled)
		return protocol.NewOKResponse(req.ID, map[string]interface{}{"ended": ended})
	}

	count := m.engine.EndAll(quiz.ReasonCancelled)
	return protocol.NewOKResponse(req.ID, map[string]interface{}{"ended_count": count})
}

func (m *QuizMethods) handleStatus(_ context.Context, _ *gateway.Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	var params quizStatusParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid quiz_status params")
		}
	}

	if params.ChatID != "" {
		session, ok := m.engine.Snapshot(params.ChatID)
		payload := map[string]interface{}{"active": ok}
		if ok {
			payload["quiz"] = session
		}
		return protocol.NewOKResponse(req.ID, payload)
	}

	sessions := m.engine.ActiveSessions()
	return protocol.NewOKResponse(req.ID, map[string]interface{}{
		"active_count": len(sessions),
		"quizzes":      sessions,
	})
}
