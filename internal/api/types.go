package api

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation as it travels over the wire.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationSummary is the sidebar-level projection of a conversation.
type ConversationSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	UserID string `json:"user_id,omitempty"`
}

// EventType tags the variants of a decoded stream event.
type EventType int

const (
	// EventDelta carries one incremental fragment of assistant content.
	EventDelta EventType = iota
	// EventDone signals the end of the exchange, explicit or implicit.
	EventDone
	// EventMalformed marks a frame that could not be parsed; the stream
	// continues past it.
	EventMalformed
	// EventError carries a transport-level failure that ends the stream.
	EventError
)

// Event is one decoded unit of the exchange stream.
type Event struct {
	Type EventType
	// Text is the content fragment for EventDelta.
	Text string
	// CorrelationID is the server token used to drop duplicate deltas.
	// May be empty; empty ids are never deduplicated.
	CorrelationID string
	// Raw holds the offending frame for EventMalformed.
	Raw string
	// Err is set for EventError.
	Err error
}
