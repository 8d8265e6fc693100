package http

import (
	"encoding/json"
	"errors"

	"github.com/workbridge/workbridge-server/internal/chat"
	"github.com/workbridge/workbridge-server/internal/proto"
	"github.com/workbridge/workbridge-server/internal/store"
)

func messagePayload(msg *store.Message) *proto.MessagePayload {
	return &proto.MessagePayload{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		ReceiverID:   msg.ReceiverID,
		SenderKind:   string(msg.SenderKind),
		ReceiverKind: string(msg.ReceiverKind),
		Body:         msg.Body,
		Kind:         string(msg.Kind),
		Timestamp:    msg.CreatedAt.Unix(),
	}
}

func sendRequestFromData(data proto.SendMessageData) chat.SendRequest {
	return chat.SendRequest{
		SenderID:     data.SenderID,
		ReceiverID:   data.ReceiverID,
		SenderKind:   data.SenderKind,
		ReceiverKind: data.ReceiverKind,
		Body:         data.Body,
		Kind:         data.Kind,
	}
}

func outboundFromEvent(ev chat.Event) proto.Outbound {
	switch ev.Kind {
	case chat.EventJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeJoined,
			Data: proto.JoinedData{Success: true, UserID: ev.UserID},
		}
	case chat.EventMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeReceiveMessage,
			Data: messagePayload(ev.Message),
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown_event", Msg: "unknown event kind"},
		}
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(data, v)
}

// protoError maps a chat domain error onto the wire error shape.
func protoError(err error) *proto.Error {
	var chatErr *chat.Error
	if errors.As(err, &chatErr) {
		return &proto.Error{Code: chatErr.Code, Msg: chatErr.Message}
	}
	return &proto.Error{Code: "internal", Msg: "internal server error"}
}
