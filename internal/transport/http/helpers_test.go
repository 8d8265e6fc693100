package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/workbridge/workbridge-server/internal/auth"
	"github.com/workbridge/workbridge-server/internal/chat"
	"github.com/workbridge/workbridge-server/internal/config"
	"github.com/workbridge/workbridge-server/internal/identity"
	"github.com/workbridge/workbridge-server/internal/log"
	"github.com/workbridge/workbridge-server/internal/store"
	"github.com/workbridge/workbridge-server/internal/store/sqlite"
)

type testEnv struct {
	server      *httptest.Server
	store       *sqlite.SQLiteStore
	registry    *chat.Registry
	coordinator *chat.Coordinator
	authService *auth.Service
}

// newTestEnv wires the full HTTP surface over an in-memory store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLimit(t, 0)
}

// newTestEnvWithLimit is newTestEnv with a ws send cap configured.
func newTestEnvWithLimit(t *testing.T, wsMessageLimit int) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.New("error")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, st, jwtConfig)

	registry := chat.NewRegistry(logger)
	coordinator := chat.NewCoordinator(st, registry, logger)
	conversations := chat.NewConversations(st, identity.New(st, st), logger)

	server := NewServer(registry, coordinator, conversations, authService, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		WSMessageLimit:    wsMessageLimit,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		server:      ts,
		store:       st,
		registry:    registry,
		coordinator: coordinator,
		authService: authService,
	}
}

// clientToken signs up a client account and returns its id and bearer token.
func (e *testEnv) clientToken(t *testing.T, name, email string) (string, string) {
	t.Helper()

	token, err := e.authService.ClientSignup(context.Background(), auth.ClientSignupInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("client signup: %v", err)
	}

	claims, err := e.authService.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	return claims.UserID, token
}

// freelancerToken signs up a freelancer account and returns its id and token.
func (e *testEnv) freelancerToken(t *testing.T, name, username, email string) (string, string) {
	t.Helper()

	token, err := e.authService.FreelancerSignup(context.Background(), auth.FreelancerSignupInput{
		Name:     name,
		Username: username,
		Email:    email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("freelancer signup: %v", err)
	}

	claims, err := e.authService.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	return claims.UserID, token
}

// seedMessage appends a message directly through the store.
func (e *testEnv) seedMessage(t *testing.T, sender, receiver string, senderKind, receiverKind store.ParticipantKind, body string, kind store.MessageKind) *store.Message {
	t.Helper()

	msg, err := e.store.AppendMessage(context.Background(), &store.Message{
		SenderID:     sender,
		ReceiverID:   receiver,
		SenderKind:   senderKind,
		ReceiverKind: receiverKind,
		Body:         body,
		Kind:         kind,
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg
}
