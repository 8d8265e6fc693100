package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/workbridge/workbridge-server/internal/proto"
)

func dialWS(ctx context.Context, t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

func wsJoin(ctx context.Context, t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()

	payload, _ := json.Marshal(proto.JoinData{UserID: userID})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	out := readOutbound(ctx, t, conn, proto.OutboundTypeJoined)
	var joined proto.JoinedData
	if err := json.Unmarshal(out.Data, &joined); err != nil {
		t.Fatalf("unmarshal joined: %v", err)
	}
	if !joined.Success || joined.UserID != userID {
		t.Fatalf("unexpected joined ack: %+v", joined)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Ack   int64           `json:"ack"`
	Error *proto.Error    `json:"error"`
}

// readOutbound reads envelopes until one of the wanted type arrives.
func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn, wantType string) rawOutbound {
	t.Helper()

	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read outbound (waiting for %q): %v", wantType, err)
		}
		if out.Type == wantType {
			return out
		}
	}
}

func TestWSSendMessageFansOutToBothSides(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, env)
	connB := dialWS(ctx, t, env)

	wsJoin(ctx, t, connA, "u1")
	wsJoin(ctx, t, connB, "u2")

	payload, _ := json.Marshal(proto.SendMessageData{
		SenderID:     "u1",
		ReceiverID:   "u2",
		SenderKind:   "Client",
		ReceiverKind: "Freelancer",
		Body:         "hi there",
	})
	if err := wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload, Ack: 7}); err != nil {
		t.Fatalf("write send_message: %v", err)
	}

	// Sender gets the ack with the persisted record.
	ackOut := readOutbound(ctx, t, connA, proto.OutboundTypeAck)
	if ackOut.Ack != 7 {
		t.Fatalf("ack correlation id mismatch: %d", ackOut.Ack)
	}
	var ack proto.AckData
	if err := json.Unmarshal(ackOut.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if !ack.Success || ack.Message == nil || ack.Message.ID == 0 {
		t.Fatalf("expected successful ack with persisted message, got %+v", ack)
	}

	// Both sides observe receive_message with the same id.
	var onA, onB proto.MessagePayload
	outA := readOutbound(ctx, t, connA, proto.OutboundTypeReceiveMessage)
	outB := readOutbound(ctx, t, connB, proto.OutboundTypeReceiveMessage)
	if err := json.Unmarshal(outA.Data, &onA); err != nil {
		t.Fatalf("unmarshal message on A: %v", err)
	}
	if err := json.Unmarshal(outB.Data, &onB); err != nil {
		t.Fatalf("unmarshal message on B: %v", err)
	}
	if onA.ID != onB.ID || onA.ID != ack.Message.ID {
		t.Fatalf("message ids differ: ack=%d A=%d B=%d", ack.Message.ID, onA.ID, onB.ID)
	}
	if onB.Body != "hi there" {
		t.Fatalf("unexpected body: %q", onB.Body)
	}
}

func TestWSSendValidationFailureAck(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	wsJoin(ctx, t, conn, "u1")

	payload, _ := json.Marshal(proto.SendMessageData{
		SenderID:     "u1",
		ReceiverID:   "u2",
		SenderKind:   "Client",
		ReceiverKind: "Freelancer",
		Body:         "",
	})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload, Ack: 1}); err != nil {
		t.Fatalf("write send_message: %v", err)
	}

	out := readOutbound(ctx, t, conn, proto.OutboundTypeAck)
	var ack proto.AckData
	if err := json.Unmarshal(out.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.Success || ack.Error == "" {
		t.Fatalf("expected failed ack, got %+v", ack)
	}

	// Nothing was persisted.
	history, err := env.store.ListConversation(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected no persisted record, got %d", len(history))
	}
}

func TestWSRejoinRedirectsDelivery(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	wsJoin(ctx, t, conn, "u2")
	// Rebinding to another user must release the old binding.
	wsJoin(ctx, t, conn, "u3")

	sender := dialWS(ctx, t, env)
	wsJoin(ctx, t, sender, "u1")

	payload, _ := json.Marshal(proto.SendMessageData{
		SenderID:     "u1",
		ReceiverID:   "u2",
		SenderKind:   "Client",
		ReceiverKind: "Freelancer",
		Body:         "for u2 only",
	})
	if err := wsjson.Write(ctx, sender, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload, Ack: 3}); err != nil {
		t.Fatalf("write send_message: %v", err)
	}
	readOutbound(ctx, t, sender, proto.OutboundTypeAck)

	// conn is now bound to u3; it must not see the message.
	readCtx, readCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer readCancel()
	var out rawOutbound
	if err := wsjson.Read(readCtx, conn, &out); err == nil {
		t.Fatalf("rebound connection unexpectedly received %+v", out)
	}
}

func TestWSSendRateLimited(t *testing.T) {
	env := newTestEnvWithLimit(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	wsJoin(ctx, t, conn, "u1")

	payload, _ := json.Marshal(proto.SendMessageData{
		SenderID:     "u1",
		ReceiverID:   "u2",
		SenderKind:   "Client",
		ReceiverKind: "Freelancer",
		Body:         "spam",
	})

	// The first two sends fit in the window.
	for i := int64(1); i <= 2; i++ {
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload, Ack: i}); err != nil {
			t.Fatalf("write send_message %d: %v", i, err)
		}
		out := readOutbound(ctx, t, conn, proto.OutboundTypeAck)
		var ack proto.AckData
		if err := json.Unmarshal(out.Data, &ack); err != nil {
			t.Fatalf("unmarshal ack: %v", err)
		}
		if !ack.Success {
			t.Fatalf("send %d within the limit failed: %+v", i, ack)
		}
	}

	// The third is rejected and never reaches the store.
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload, Ack: 3}); err != nil {
		t.Fatalf("write send_message over limit: %v", err)
	}
	out := readOutbound(ctx, t, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited error, got %+v", out.Error)
	}

	history, err := env.store.ListConversation(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("list conversation: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(history))
	}
}

func TestWSUnknownTypeReturnsError(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "dance", Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := readOutbound(ctx, t, conn, proto.OutboundTypeError)
	if out.Error == nil || out.Error.Code != "invalid_message" {
		t.Fatalf("expected invalid_message error, got %+v", out.Error)
	}
}
