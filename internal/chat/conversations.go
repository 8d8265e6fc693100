package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/store"
)

// PlaceholderName is used when a partner's identity cannot be resolved.
const PlaceholderName = "Unknown User"

// NameResolver resolves a participant id to a display name. Implemented by
// the profile subsystem; a failed lookup degrades to PlaceholderName rather
// than failing the query.
type NameResolver interface {
	DisplayName(ctx context.Context, kind store.ParticipantKind, id string) (string, error)
}

// Conversation is the latest exchange with one distinct partner, from the
// querying user's point of view. Derived on every query, never stored.
type Conversation struct {
	PartnerID     string
	PartnerKind   store.ParticipantKind
	PartnerName   string
	LastMessage   string
	LastMessageAt time.Time
}

// Request is an inbound work request annotated with the sender's name.
type Request struct {
	Message    *store.Message
	SenderName string
}

// Conversations derives per-user conversation lists from the flat message
// log, denormalizing partner display names from the identity resolver.
type Conversations struct {
	store    store.MessageStore
	resolver NameResolver
	log      *zerolog.Logger
}

// NewConversations builds the aggregation service.
func NewConversations(st store.MessageStore, resolver NameResolver, logger *zerolog.Logger) *Conversations {
	return &Conversations{
		store:    st,
		resolver: resolver,
		log:      logger,
	}
}

// List returns the user's conversations, newest first, each annotated with
// the partner's resolved display name.
func (s *Conversations) List(ctx context.Context, userID string) ([]*Conversation, error) {
	if userID == "" {
		return nil, newValidationError("userId", "userId is required")
	}

	partners, err := s.store.ListChatPartners(ctx, userID)
	if err != nil {
		return nil, newStorageError(err)
	}

	conversations := make([]*Conversation, 0, len(partners))
	for _, p := range partners {
		name, err := s.resolver.DisplayName(ctx, p.PartnerKind, p.PartnerID)
		if err != nil {
			s.log.Debug().Err(err).
				Str("partner_id", p.PartnerID).
				Str("partner_kind", string(p.PartnerKind)).
				Msg("partner name resolution failed")
			name = PlaceholderName
		}
		conversations = append(conversations, &Conversation{
			PartnerID:     p.PartnerID,
			PartnerKind:   p.PartnerKind,
			PartnerName:   name,
			LastMessage:   p.LastMessage,
			LastMessageAt: p.LastMessageAt,
		})
	}

	return conversations, nil
}

// Requests returns request-kind messages addressed to the user, newest
// first, each annotated with the sender's resolved name.
func (s *Conversations) Requests(ctx context.Context, userID string) ([]*Request, error) {
	if userID == "" {
		return nil, newValidationError("userId", "userId is required")
	}

	messages, err := s.store.ListRequests(ctx, userID)
	if err != nil {
		return nil, newStorageError(err)
	}

	requests := make([]*Request, 0, len(messages))
	for _, msg := range messages {
		name, err := s.resolver.DisplayName(ctx, msg.SenderKind, msg.SenderID)
		if err != nil {
			name = PlaceholderName
		}
		requests = append(requests, &Request{Message: msg, SenderName: name})
	}

	return requests, nil
}
