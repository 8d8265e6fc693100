package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. Ack is an
// optional caller-chosen correlation id; when non-zero the server answers
// the send with an ack envelope carrying the same id.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Ack  int64           `json:"ack,omitempty"`
}

const (
	InboundTypeJoin        = "join"
	InboundTypeSendMessage = "send_message"

	OutboundTypeJoined         = "joined"
	OutboundTypeReceiveMessage = "receive_message"
	OutboundTypeAck            = "ack"
	OutboundTypeError          = "error"
)

// JoinData binds the current connection to a user id.
type JoinData struct {
	UserID string `json:"user_id"`
}

// SendMessageData is an outbound chat message from the client. Field names
// mirror the REST submit-message surface.
type SendMessageData struct {
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderKind   string `json:"senderModel"`
	ReceiverKind string `json:"receiverModel"`
	Body         string `json:"message"`
	Kind         string `json:"type,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Ack   int64  `json:"ack,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JoinedData acknowledges a join.
type JoinedData struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// MessagePayload is a persisted message as pushed to live connections and
// returned in acks.
type MessagePayload struct {
	ID           int64  `json:"id"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderKind   string `json:"senderModel"`
	ReceiverKind string `json:"receiverModel"`
	Body         string `json:"message"`
	Kind         string `json:"kind"`
	Timestamp    int64  `json:"timestamp"`
}

// AckData reports the outcome of a send back to the originating connection.
// Success means "delivered to store"; live push is best-effort.
type AckData struct {
	Success bool            `json:"success"`
	Message *MessagePayload `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
