package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/namvu/quizbridge/pkg/protocol"
)

// HandlerFunc handles one request frame and returns the response to send.
type HandlerFunc func(ctx context.Context, client *Client, req protocol.RequestFrame) *protocol.ResponseFrame

// MethodRouter dispatches request frames to registered method handlers.
type MethodRouter struct {
	server   *Server
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	started  time.Time
}

// NewMethodRouter creates a router with the built-in methods registered.
func NewMethodRouter(s *Server) *MethodRouter {
	r := &MethodRouter{
		server:   s,
		handlers: make(map[string]HandlerFunc),
		started:  time.Now(),
	}
	r.Register(protocol.MethodConnect, r.handleConnect)
	r.Register(protocol.MethodHealth, r.handleHealth)
	r.Register(protocol.MethodStatus, r.handleStatus)
	return r
}

// Register adds a method handler. Later registrations replace earlier ones.
func (r *MethodRouter) Register(method string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = handler
}

// Handle routes one request frame and writes the response to the client.
func (r *MethodRouter) Handle(ctx context.Context, client *Client, req protocol.RequestFrame) {
	if res := r.dispatch(ctx, client, req); res != nil {
		client.SendResponse(*res)
	}
}

func (r *MethodRouter) dispatch(ctx context.Context, client *Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	r.mu.RLock()
	handler, ok := r.handlers[req.Method]
	r.mu.RUnlock()

	if !ok {
		return protocol.NewErrorResponse(req.ID, protocol.ErrNotFound, "unknown method: "+req.Method)
	}

	// connect and health work before auth; everything else requires it.
	if req.Method != protocol.MethodConnect && req.Method != protocol.MethodHealth {
		if !client.Authenticated() {
			return protocol.NewErrorResponse(req.ID, protocol.ErrUnauthorized, "connect first")
		}
		if !r.server.rateLimiter.Allow(client.ID()) {
			return protocol.NewErrorResponse(req.ID, protocol.ErrRateLimited, "rate limit exceeded")
		}
	}

	slog.Debug("method call", "client", client.ID(), "method", req.Method)
	return handler(ctx, client, req)
}

type connectParams struct {
	Token string `json:"token"`
}

func (r *MethodRouter) handleConnect(_ context.Context, client *Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	var params connectParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid connect params")
		}
	}

	token := r.server.cfg.Gateway.Token
	if token != "" && params.Token != token {
		slog.Warn("connect rejected: bad token", "client", client.ID())
		return protocol.NewErrorResponse(req.ID, protocol.ErrUnauthorized, "invalid token")
	}

	client.setAuthenticated()
	return protocol.NewOKResponse(req.ID, map[string]interface{}{
		"client_id": client.ID(),
		"protocol":  protocol.ProtocolVersion,
	})
}

func (r *MethodRouter) handleHealth(_ context.Context, _ *Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	return protocol.NewOKResponse(req.ID, map[string]interface{}{"status": "ok"})
}

func (r *MethodRouter) handleStatus(_ context.Context, _ *Client, req protocol.RequestFrame) *protocol.ResponseFrame {
	r.server.mu.RLock()
	clients := len(r.server.clients)
	r.server.mu.RUnlock()

	return protocol.NewOKResponse(req.ID, map[string]interface{}{
		"clients":        clients,
		"uptime_seconds": int(time.Since(r.started).Seconds()),
	})
}
