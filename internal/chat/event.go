package chat

import "github.com/workbridge/workbridge-server/internal/store"

// EventKind is a notification pushed to a live connection.
type EventKind int

const (
	// EventJoined acknowledges that the connection was bound to a user.
	EventJoined EventKind = iota
	// EventMessage delivers a persisted chat message.
	EventMessage
)

// Event is what the chat core pushes onto a connection's outbound channel.
type Event struct {
	Kind    EventKind
	UserID  string         // set for EventJoined
	Message *store.Message // set for EventMessage
}

const eventBufferSize = 16

// Conn is one live transport session as seen by the chat core. The transport
// layer drains Events and owns the underlying socket.
type Conn struct {
	ID     string
	Events chan Event
}

// NewConn constructs a connection with a buffered outbound channel.
func NewConn(id string) *Conn {
	return &Conn{
		ID:     id,
		Events: make(chan Event, eventBufferSize),
	}
}

// push enqueues an event without blocking. Returns false when the consumer
// is too slow and the event is dropped.
func (c *Conn) push(ev Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
