package protocol

// RPC method name constants.

// System methods.
const (
	MethodConnect = "connect"
	MethodHealth  = "health"
	MethodStatus  = "status"
)

// Messaging methods.
const (
	// MethodSend delivers an outbound message to the platform chat.
	MethodSend = "send"
)

// Quiz methods. These names are the external contract consumed by the
// agent process; keep them stable.
const (
	MethodQuizStart  = "quiz_start"
	MethodQuizEnd    = "quiz_end"
	MethodQuizStatus = "quiz_status"
)
