package chat

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/store"
)

// SendRequest carries one outbound message submission. Field names on the
// wire follow the public API (senderModel/receiverModel tag the identity
// collection each id resolves against).
type SendRequest struct {
	SenderID     string `json:"senderId" validate:"required"`
	ReceiverID   string `json:"receiverId" validate:"required,nefield=SenderID"`
	SenderKind   string `json:"senderModel" validate:"required,oneof=Client Freelancer"`
	ReceiverKind string `json:"receiverModel" validate:"required,oneof=Client Freelancer"`
	Body         string `json:"message" validate:"required"`
	Kind         string `json:"type" validate:"omitempty,oneof=message request"`
}

// Coordinator accepts outbound messages, persists them, and fans them out to
// the live connections of both participants. Persistence strictly precedes
// fan-out: no message is delivered live without a durable record.
type Coordinator struct {
	store    store.MessageStore
	registry *Registry
	validate *validator.Validate
	log      *zerolog.Logger
}

// NewCoordinator wires the coordinator to its store and registry.
func NewCoordinator(st store.MessageStore, registry *Registry, logger *zerolog.Logger) *Coordinator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Coordinator{
		store:    st,
		registry: registry,
		validate: v,
		log:      logger,
	}
}

// Send validates and persists the message, then pushes the persisted record
// to every live connection of sender and receiver. The returned message
// carries the server-assigned id and timestamp and is the only thing being
// acknowledged; live push is best-effort and never fails the call.
func (c *Coordinator) Send(ctx context.Context, req SendRequest) (*store.Message, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	saved, err := c.store.AppendMessage(ctx, &store.Message{
		SenderID:     req.SenderID,
		ReceiverID:   req.ReceiverID,
		SenderKind:   store.ParticipantKind(req.SenderKind),
		ReceiverKind: store.ParticipantKind(req.ReceiverKind),
		Body:         req.Body,
		Kind:         store.MessageKind(req.Kind),
	})
	if err != nil {
		c.log.Error().Err(err).
			Str("sender_id", req.SenderID).
			Str("receiver_id", req.ReceiverID).
			Msg("failed to persist message")
		return nil, newStorageError(err)
	}

	c.fanOut(saved)

	c.log.Debug().
		Int64("message_id", saved.ID).
		Str("sender_id", saved.SenderID).
		Str("receiver_id", saved.ReceiverID).
		Msg("message persisted and fanned out")

	return saved, nil
}

// History returns the full message log between two users, ascending by time.
func (c *Coordinator) History(ctx context.Context, userA, userB string) ([]*store.Message, error) {
	if userA == "" || userB == "" {
		return nil, newValidationError("userId", "both user ids are required")
	}

	messages, err := c.store.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, newStorageError(err)
	}
	return messages, nil
}

// fanOut pushes the persisted message to every live connection of both
// participants, one task per target so a slow or dead connection cannot
// stall delivery to the others.
func (c *Coordinator) fanOut(msg *store.Message) {
	targets := c.registry.Resolve(msg.SenderID)
	targets = append(targets, c.registry.Resolve(msg.ReceiverID)...)

	for _, conn := range targets {
		go func(conn *Conn) {
			if !conn.push(Event{Kind: EventMessage, Message: msg}) {
				c.log.Warn().
					Str("conn_id", conn.ID).
					Int64("message_id", msg.ID).
					Msg("dropped live push to slow consumer")
			}
		}(conn)
	}
}

func mapValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError("", err.Error())
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return newValidationError(fe.Field(), fmt.Sprintf("%s is required", fe.Field()))
	case "nefield":
		return newValidationError(fe.Field(), "sender and receiver must differ")
	case "oneof":
		return newValidationError(fe.Field(), fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return newValidationError(fe.Field(), fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
