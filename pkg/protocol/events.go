package protocol

// WebSocket event names pushed from server to clients.
const (
	// EventMessage carries an inbound chat message routed to the agent.
	EventMessage = "message"

	// EventQuizStarted fires when a quiz session begins (payload: quiz snapshot).
	EventQuizStarted = "quiz_started"

	// EventQuizEnded fires when a quiz session ends
	// (payload: chat_id, reason ∈ {answered, timeout, cancelled}).
	EventQuizEnded = "quiz_ended"

	// EventStatus reports bridge connectivity changes.
	EventStatus = "status"

	EventShutdown = "shutdown"
)
