package store

import (
	"context"
	"time"
)

// ParticipantKind tags which identity collection an opaque user id
// resolves against.
type ParticipantKind string

const (
	KindClient     ParticipantKind = "Client"
	KindFreelancer ParticipantKind = "Freelancer"
)

// Valid reports whether k is one of the two known participant kinds.
func (k ParticipantKind) Valid() bool {
	return k == KindClient || k == KindFreelancer
}

// MessageKind distinguishes ordinary chat messages from work requests.
// Both share the same storage shape; history and aggregation do not
// filter on it.
type MessageKind string

const (
	MessageKindMessage MessageKind = "message"
	MessageKindRequest MessageKind = "request"
)

// Message represents a persisted chat message between two participants.
// Messages are append-only: never edited, never deleted.
type Message struct {
	ID           int64
	SenderID     string
	ReceiverID   string
	SenderKind   ParticipantKind
	ReceiverKind ParticipantKind
	Body         string
	Kind         MessageKind
	CreatedAt    time.Time
}

// ChatPartner is one row of the conversation-partner aggregation:
// the latest message exchanged with one distinct partner, seen from
// the querying user's side.
type ChatPartner struct {
	PartnerID     string
	PartnerKind   ParticipantKind
	LastMessage   string
	LastMessageAt time.Time
}

// Client represents a client-side marketplace account.
type Client struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Gender       string
	Phone        string
	CreatedAt    time.Time
}

// Freelancer represents a freelancer-side marketplace account.
type Freelancer struct {
	ID           string
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Country      string
	Bio          string
	CreatedAt    time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message, assigning the server id and
	// timestamp. The returned message carries both.
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)

	// ListConversation returns every message exchanged between the two
	// users in either direction, ascending by creation time. An empty
	// slice is returned when none exist.
	ListConversation(ctx context.Context, userA, userB string) ([]*Message, error)

	// ListChatPartners returns, for every distinct partner the user has
	// exchanged at least one message with, the latest such message,
	// newest conversation first. Ties on created_at break by id so
	// repeated calls over the same data are stable.
	ListChatPartners(ctx context.Context, userID string) ([]*ChatPartner, error)

	// ListRequests returns request-kind messages addressed to the user,
	// newest first.
	ListRequests(ctx context.Context, receiverID string) ([]*Message, error)
}

// ClientStore handles client account persistence.
type ClientStore interface {
	// CreateClient inserts a new client account.
	CreateClient(ctx context.Context, c *Client) (*Client, error)

	// GetClientByID retrieves a client by id.
	GetClientByID(ctx context.Context, id string) (*Client, error)

	// GetClientByEmail retrieves a client by email.
	GetClientByEmail(ctx context.Context, email string) (*Client, error)
}

// FreelancerStore handles freelancer account persistence.
type FreelancerStore interface {
	// CreateFreelancer inserts a new freelancer account.
	CreateFreelancer(ctx context.Context, f *Freelancer) (*Freelancer, error)

	// GetFreelancerByID retrieves a freelancer by id.
	GetFreelancerByID(ctx context.Context, id string) (*Freelancer, error)

	// GetFreelancerByEmail retrieves a freelancer by email.
	GetFreelancerByEmail(ctx context.Context, email string) (*Freelancer, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore
	ClientStore
	FreelancerStore

	// Close closes the underlying database connection.
	Close() error
}
