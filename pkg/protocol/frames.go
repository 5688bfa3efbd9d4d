// Package protocol defines the wire contract of the control channel:
// JSON frames exchanged over the gateway WebSocket, plus the method and
// event name constants shared by server and clients.
package protocol

import "encoding/json"

// ProtocolVersion is bumped on breaking frame changes.
const ProtocolVersion = 1

// Frame type discriminators.
const (
	FrameRequest  = "req"
	FrameResponse = "res"
	FrameEvent    = "event"
)

// Error codes carried in response frames.
const (
	ErrInvalidRequest = "INVALID_REQUEST"
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrNotFound       = "NOT_FOUND"
	ErrRateLimited    = "RATE_LIMITED"
	ErrUnavailable    = "UNAVAILABLE"
	ErrInternal       = "INTERNAL"
)

// RequestFrame is a client→server RPC call.
type RequestFrame struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ErrorBody describes a failed call.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseFrame is the server's reply to a RequestFrame, matched by ID.
type ResponseFrame struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	OK      bool        `json:"ok"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// EventFrame is a server→client broadcast.
type EventFrame struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewOKResponse builds a success response for a request ID.
func NewOKResponse(id string, payload interface{}) *ResponseFrame {
	return &ResponseFrame{Type: FrameResponse, ID: id, OK: true, Payload: payload}
}

// NewErrorResponse builds a failure response for a request ID.
func NewErrorResponse(id, code, message string) *ResponseFrame {
	return &ResponseFrame{
		Type:  FrameResponse,
		ID:    id,
		OK:    false,
		Error: &ErrorBody{Code: code, Message: message},
	}
}

// NewEvent builds an event frame.
func NewEvent(name string, payload interface{}) *EventFrame {
	return &EventFrame{Type: FrameEvent, Event: name, Payload: payload}
}
