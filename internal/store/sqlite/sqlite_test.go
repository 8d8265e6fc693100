package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workbridge/workbridge-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func appendMsg(t *testing.T, s *SQLiteStore, sender, receiver string, senderKind, receiverKind store.ParticipantKind, body string) *store.Message {
	t.Helper()

	msg, err := s.AppendMessage(context.Background(), &store.Message{
		SenderID:     sender,
		ReceiverID:   receiver,
		SenderKind:   senderKind,
		ReceiverKind: receiverKind,
		Body:         body,
	})
	if err != nil {
		t.Fatalf("append message: %v", err)
	}
	return msg
}

func TestAppendMessageAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	msg := appendMsg(t, s, "u1", "u2", store.KindClient, store.KindFreelancer, "Hi")

	if msg.ID == 0 {
		t.Fatalf("expected non-zero id")
	}
	if msg.CreatedAt.Before(before) {
		t.Fatalf("created_at %v is before append time %v", msg.CreatedAt, before)
	}
	if msg.Kind != store.MessageKindMessage {
		t.Fatalf("expected default kind 'message', got %q", msg.Kind)
	}

	second := appendMsg(t, s, "u1", "u2", store.KindClient, store.KindFreelancer, "again")
	if second.ID == msg.ID {
		t.Fatalf("expected unique ids, got %d twice", msg.ID)
	}
}

func TestAppendMessageRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	valid := store.Message{
		SenderID:     "u1",
		ReceiverID:   "u2",
		SenderKind:   store.KindClient,
		ReceiverKind: store.KindFreelancer,
		Body:         "Hi",
	}

	tests := []struct {
		name   string
		mutate func(*store.Message)
	}{
		{"empty sender", func(m *store.Message) { m.SenderID = "" }},
		{"empty receiver", func(m *store.Message) { m.ReceiverID = "" }},
		{"sender equals receiver", func(m *store.Message) { m.ReceiverID = m.SenderID }},
		{"unknown sender kind", func(m *store.Message) { m.SenderKind = "Admin" }},
		{"unknown receiver kind", func(m *store.Message) { m.ReceiverKind = "Robot" }},
		{"empty body", func(m *store.Message) { m.Body = "" }},
		{"unknown message kind", func(m *store.Message) { m.Kind = "broadcast" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := valid
			tt.mutate(&msg)

			if _, err := s.AppendMessage(ctx, &msg); !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}

	// Nothing may have been inserted.
	history, err := s.ListConversation(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty log after rejected appends, got %d", len(history))
	}
}

func TestListConversationSymmetricAndOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appendMsg(t, s, "u1", "u2", store.KindClient, store.KindFreelancer, "first")
	appendMsg(t, s, "u2", "u1", store.KindFreelancer, store.KindClient, "second")
	appendMsg(t, s, "u1", "u3", store.KindClient, store.KindFreelancer, "other pair")

	ab, err := s.ListConversation(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	ba, err := s.ListConversation(ctx, "u2", "u1")
	if err != nil {
		t.Fatalf("list conversation reversed: %v", err)
	}

	if len(ab) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(ab))
	}
	if len(ba) != len(ab) {
		t.Fatalf("history not symmetric: %d vs %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatalf("history order differs at %d: %d vs %d", i, ab[i].ID, ba[i].ID)
		}
	}
	if ab[0].Body != "first" || ab[1].Body != "second" {
		t.Fatalf("unexpected ordering: %q, %q", ab[0].Body, ab[1].Body)
	}
}

func TestListConversationEmpty(t *testing.T) {
	s := newTestStore(t)

	msgs, err := s.ListConversation(context.Background(), "nobody", "noone")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(msgs))
	}
}

func TestListChatPartnersLatestPerPartner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appendMsg(t, s, "client1", "fr1", store.KindClient, store.KindFreelancer, "hello fr1")
	appendMsg(t, s, "fr1", "client1", store.KindFreelancer, store.KindClient, "hello back")
	appendMsg(t, s, "fr2", "client1", store.KindFreelancer, store.KindClient, "pitch")

	partners, err := s.ListChatPartners(ctx, "client1")
	if err != nil {
		t.Fatalf("list chat partners: %v", err)
	}

	if len(partners) != 2 {
		t.Fatalf("expected 2 partners, got %d", len(partners))
	}

	// Newest conversation first.
	if partners[0].PartnerID != "fr2" || partners[0].LastMessage != "pitch" {
		t.Fatalf("unexpected first partner: %+v", partners[0])
	}
	if partners[1].PartnerID != "fr1" || partners[1].LastMessage != "hello back" {
		t.Fatalf("unexpected second partner: %+v", partners[1])
	}

	// The derived kind is the partner's side, not the caller's.
	for _, p := range partners {
		if p.PartnerKind != store.KindFreelancer {
			t.Fatalf("expected partner kind Freelancer, got %q for %s", p.PartnerKind, p.PartnerID)
		}
	}

	// Matches max-by-created_at of the pairwise history.
	history, err := s.ListConversation(ctx, "client1", "fr1")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	last := history[len(history)-1]
	if partners[1].LastMessage != last.Body || !partners[1].LastMessageAt.Equal(last.CreatedAt) {
		t.Fatalf("partner preview %+v does not match latest history record %+v", partners[1], last)
	}
}

func TestListChatPartnersStableUnderTimestampTies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Force identical timestamps; tie must break by id, deterministically.
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insert := `
		INSERT INTO messages (sender_id, receiver_id, sender_kind, receiver_kind, body, kind, created_at)
		VALUES (?, ?, 'Client', 'Freelancer', ?, 'message', ?)
	`
	if _, err := s.db.ExecContext(ctx, insert, "u1", "fr1", "one", ts); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, insert, "u1", "fr1", "two", ts); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, err := s.ListChatPartners(ctx, "u1")
	if err != nil {
		t.Fatalf("list chat partners: %v", err)
	}
	second, err := s.ListChatPartners(ctx, "u1")
	if err != nil {
		t.Fatalf("list chat partners again: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected a single partner entry, got %d and %d", len(first), len(second))
	}
	if first[0].LastMessage != second[0].LastMessage {
		t.Fatalf("tie-break unstable: %q vs %q", first[0].LastMessage, second[0].LastMessage)
	}
	if first[0].LastMessage != "two" {
		t.Fatalf("expected highest-id message to win the tie, got %q", first[0].LastMessage)
	}
}

func TestListRequestsFiltersKindAndReceiver(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendMessage(ctx, &store.Message{
		SenderID:     "fr1",
		ReceiverID:   "client1",
		SenderKind:   store.KindFreelancer,
		ReceiverKind: store.KindClient,
		Body:         "please hire me",
		Kind:         store.MessageKindRequest,
	})
	if err != nil {
		t.Fatalf("append request: %v", err)
	}
	appendMsg(t, s, "fr1", "client1", store.KindFreelancer, store.KindClient, "plain chat")

	requests, err := s.ListRequests(ctx, "client1")
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}

	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].Kind != store.MessageKindRequest || requests[0].Body != "please hire me" {
		t.Fatalf("unexpected request record: %+v", requests[0])
	}

	// Requests addressed to someone else stay invisible.
	other, err := s.ListRequests(ctx, "fr1")
	if err != nil {
		t.Fatalf("list requests for sender: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no requests for fr1, got %d", len(other))
	}
}

func TestClientAndFreelancerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	client, err := s.CreateClient(ctx, &store.Client{
		ID:           "c-1",
		Name:         "Acme Corp",
		Email:        "ops@acme.test",
		PasswordHash: "hash",
		Gender:       "other",
		Phone:        "+100000",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if client.Name != "Acme Corp" || client.CreatedAt.IsZero() {
		t.Fatalf("unexpected client: %+v", client)
	}

	byEmail, err := s.GetClientByEmail(ctx, "ops@acme.test")
	if err != nil {
		t.Fatalf("get client by email: %v", err)
	}
	if byEmail.ID != "c-1" {
		t.Fatalf("expected c-1, got %s", byEmail.ID)
	}

	fr, err := s.CreateFreelancer(ctx, &store.Freelancer{
		ID:           "f-1",
		Name:         "Dana",
		Username:     "dana_dev",
		Email:        "dana@test.dev",
		PasswordHash: "hash",
		Country:      "NL",
	})
	if err != nil {
		t.Fatalf("create freelancer: %v", err)
	}
	if fr.Username != "dana_dev" {
		t.Fatalf("unexpected freelancer: %+v", fr)
	}

	if _, err := s.GetFreelancerByID(ctx, "missing"); err == nil {
		t.Fatalf("expected not-found error for missing freelancer")
	}
}
