// Package quiz owns quiz session state and the answer-grading protocol
// for group chats the agent is not participating in.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/pkg/protocol"
)

// End reasons. ReasonTimeout is part of the external contract but no
// timer in the engine arms it; only commands and answers end sessions.
const (
	ReasonAnswered  = "answered"
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
)

// Reactions sent on graded answers.
const (
	reactionExact   = "✅"
	reactionPartial = "👀"
	reactionClose   = "🤏"
)

// ErrQuizActive is returned when a chat already has a running quiz.
var ErrQuizActive = errors.New("quiz already active")

// Transport is the messaging capability the engine consumes. Both calls
// are fallible; the engine propagates failures without retrying.
type Transport interface {
	SendMessage(ctx context.Context, to, text string) error
	SendReaction(ctx context.Context, to, messageID, emoji string) error
}

// Session is a read-only snapshot of a quiz session.
type Session struct {
	ChatID    string    `json:"chat_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"` // normalized at creation
	StartTime time.Time `json:"start_time"`
	ReplyTo   string    `json:"reply_to_message_id,omitempty"`
}

type endedPayload struct {
	ChatID string `json:"chat_id"`
	Reason string `json:"reason"`
}

// Engine tracks at most one session per chat. All state transitions go
// through the mutex; callers only ever see copies.
type Engine struct {
	transport Transport
	events    bus.EventPublisher
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewEngine creates an Engine bound to a transport and event publisher.
func NewEngine(transport Transport, events bus.EventPublisher) *Engine {
	return &Engine{
		transport: transport,
		events:    events,
		now:       time.Now,
		sessions:  make(map[string]Session),
	}
}

// StartQuiz begins a session in chatID: it sends the question text to
// the chat, records the session, and emits quiz_started. Starting while
// the chat already has an active session fails with ErrQuizActive and
// has no effect. A transport failure sending the question also leaves
// no session behind.
func (e *Engine) StartQuiz(ctx context.Context, chatID, question, answer, replyTo string) (Session, error) {
	if chatID == "" || question == "" || strings.TrimSpace(answer) == "" {
		return Session{}, errors.New("quiz: chat id, question and answer are required")
	}

	s := Session{
		ChatID:    chatID,
		Question:  question,
		Answer:    strings.ToLower(strings.TrimSpace(answer)),
		StartTime: e.now(),
		ReplyTo:   replyTo,
	}

	e.mu.Lock()
	if _, active := e.sessions[chatID]; active {
		e.mu.Unlock()
		return Session{}, fmt.Errorf("%w in chat %s", ErrQuizActive, chatID)
	}
	e.sessions[chatID] = s
	e.mu.Unlock()

	if err := e.transport.SendMessage(ctx, chatID, question); err != nil {
		e.mu.Lock()
		delete(e.sessions, chatID)
		e.mu.Unlock()
		return Session{}, fmt.Errorf("send question: %w", err)
	}

	slog.Info("quiz started", "chat_id", chatID)
	e.events.Broadcast(bus.Event{Name: protocol.EventQuizStarted, Payload: s})
	return s, nil
}

// CheckAnswer grades a group message against the chat's active session.
// Messages for chats with no active session are silently ignored.
// An exact match reacts, confirms, and ends the session; partial and
// close matches only react; no match has no observable effect.
func (e *Engine) CheckAnswer(ctx context.Context, chatID, content, messageID string) error {
	e.mu.Lock()
	s, active := e.sessions[chatID]
	e.mu.Unlock()
	if !active {
		return nil
	}

	switch Classify(content, s.Answer) {
	case MatchExact:
		if err := e.transport.SendReaction(ctx, chatID, messageID, reactionExact); err != nil {
			return fmt.Errorf("send correct reaction: %w", err)
		}
		confirmation := fmt.Sprintf("🎉 Correct! The answer was: %s", s.Answer)
		if err := e.transport.SendMessage(ctx, chatID, confirmation); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
		e.EndQuiz(chatID, ReasonAnswered)
		return nil
	case MatchPartial:
		if err := e.transport.SendReaction(ctx, chatID, messageID, reactionPartial); err != nil {
			return fmt.Errorf("send partial reaction: %w", err)
		}
		return nil
	case MatchClose:
		if err := e.transport.SendReaction(ctx, chatID, messageID, reactionClose); err != nil {
			return fmt.Errorf("send close reaction: %w", err)
		}
		return nil
	default:
		return nil
	}
}

// EndQuiz clears chatID's session if one exists and emits quiz_ended
// with the given reason. Ending an idle chat is a no-op: no event fires
// and false is returned.
func (e *Engine) EndQuiz(chatID, reason string) bool {
	e.mu.Lock()
	_, active := e.sessions[chatID]
	if active {
		delete(e.sessions, chatID)
	}
	e.mu.Unlock()

	if !active {
		return false
	}

	slog.Info("quiz ended", "chat_id", chatID, "reason", reason)
	e.events.Broadcast(bus.Event{
		Name:    protocol.EventQuizEnded,
		Payload: endedPayload{ChatID: chatID, Reason: reason},
	})
	return true
}

// EndAll ends every active session with the given reason and returns
// how many were ended.
func (e *Engine) EndAll(reason string) int {
	e.mu.Lock()
	chats := make([]string, 0, len(e.sessions))
	for chatID := range e.sessions {
		chats = append(chats, chatID)
	}
	e.mu.Unlock()
	sort.Strings(chats)

	for _, chatID := range chats {
		e.EndQuiz(chatID, reason)
	}
	return len(chats)
}

// Snapshot returns a copy of chatID's session, if active.
func (e *Engine) Snapshot(chatID string) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[chatID]
	return s, ok
}

// Active reports whether chatID has a running session.
func (e *Engine) Active(chatID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[chatID]
	return ok
}

// ActiveSessions returns copies of all running sessions, ordered by chat id.
func (e *Engine) ActiveSessions() []Session {
	e.mu.Lock()
	out := make([]Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}
