package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/chat"
	"github.com/workbridge/workbridge-server/internal/proto"
	"github.com/workbridge/workbridge-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the chat core.
type WSHandler struct {
	registry     *chat.Registry
	coordinator  *chat.Coordinator
	messageLimit int
	log          *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *chat.Registry, coordinator *chat.Coordinator, messageLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		registry:     registry,
		coordinator:  coordinator,
		messageLimit: messageLimit,
		log:          logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := chat.NewConn(utils.NewID())
	h.registry.Register(conn)
	// Disconnect is an implicit leave.
	defer h.registry.Unregister(conn)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, wsConn *websocket.Conn, conn *chat.Conn) error {
	limiter := newRateLimiter(h.messageLimit)
	limiter.startReset(ctx.Done())

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeJoin:
			if err := h.handleJoin(ctx, wsConn, conn, inbound); err != nil {
				return err
			}
		case proto.InboundTypeSendMessage:
			if !limiter.allow() {
				if err := writeProtoError(ctx, wsConn, "rate_limited", "too many messages, slow down"); err != nil {
					return err
				}
				continue
			}
			if err := h.handleSendMessage(ctx, wsConn, conn, inbound); err != nil {
				return err
			}
		default:
			if err := writeProtoError(ctx, wsConn, "invalid_message", "unknown message type"); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) handleJoin(ctx context.Context, wsConn *websocket.Conn, conn *chat.Conn, inbound proto.Inbound) error {
	var join proto.JoinData
	if err := unmarshalData(inbound.Data, &join); err != nil {
		return writeProtoError(ctx, wsConn, "bad_request", "malformed join payload")
	}
	if join.UserID == "" {
		return writeProtoError(ctx, wsConn, "bad_request", "user_id is required")
	}

	if err := h.registry.Join(conn.ID, join.UserID); err != nil {
		h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("join failed")
		return writeProtoError(ctx, wsConn, "bad_request", "join failed")
	}
	// The joined ack flows back through the connection's event channel.
	return nil
}

func (h *WSHandler) handleSendMessage(ctx context.Context, wsConn *websocket.Conn, conn *chat.Conn, inbound proto.Inbound) error {
	var data proto.SendMessageData
	if err := unmarshalData(inbound.Data, &data); err != nil {
		return writeProtoError(ctx, wsConn, "bad_request", "malformed send_message payload")
	}

	saved, err := h.coordinator.Send(ctx, sendRequestFromData(data))
	if err != nil {
		if inbound.Ack != 0 {
			return wsjson.Write(ctx, wsConn, proto.Outbound{
				Type: proto.OutboundTypeAck,
				Ack:  inbound.Ack,
				Data: proto.AckData{Success: false, Error: err.Error()},
			})
		}
		pe := protoError(err)
		return wsjson.Write(ctx, wsConn, proto.Outbound{Type: proto.OutboundTypeError, Error: pe})
	}

	if inbound.Ack != 0 {
		return wsjson.Write(ctx, wsConn, proto.Outbound{
			Type: proto.OutboundTypeAck,
			Ack:  inbound.Ack,
			Data: proto.AckData{Success: true, Message: messagePayload(saved)},
		})
	}
	return nil
}

func (h *WSHandler) writeLoop(ctx context.Context, wsConn *websocket.Conn, conn *chat.Conn) error {
	for {
		select {
		case event := <-conn.Events:
			if err := wsjson.Write(ctx, wsConn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeProtoError(ctx context.Context, wsConn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, wsConn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}
