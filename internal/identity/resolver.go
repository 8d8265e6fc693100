package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/workbridge/workbridge-server/internal/store"
)

// ErrUnknownKind is returned when the participant kind is outside the
// two-element set.
var ErrUnknownKind = errors.New("unknown participant kind")

// Service resolves participant ids to profile display names. It is the
// identity collaborator the chat core consults when denormalizing
// conversation lists.
type Service struct {
	clients     store.ClientStore
	freelancers store.FreelancerStore
}

// New creates a resolver backed by the profile stores.
func New(clients store.ClientStore, freelancers store.FreelancerStore) *Service {
	return &Service{
		clients:     clients,
		freelancers: freelancers,
	}
}

// DisplayName returns the display name for the given participant. Clients
// resolve to their name; freelancers fall back to their username when the
// name is empty.
func (s *Service) DisplayName(ctx context.Context, kind store.ParticipantKind, id string) (string, error) {
	switch kind {
	case store.KindClient:
		client, err := s.clients.GetClientByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("resolve client %s: %w", id, err)
		}
		return client.Name, nil
	case store.KindFreelancer:
		freelancer, err := s.freelancers.GetFreelancerByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("resolve freelancer %s: %w", id, err)
		}
		if freelancer.Name != "" {
			return freelancer.Name, nil
		}
		return freelancer.Username, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
