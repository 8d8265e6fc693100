package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/workbridge/workbridge-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8000/ws", "WebSocket address")
	user := flag.String("user", "", "user id to join as")
	kind := flag.String("kind", "Client", "participant kind (Client or Freelancer)")
	peer := flag.String("peer", "", "peer user id to message")
	peerKind := flag.String("peer-kind", "Freelancer", "peer participant kind")
	flag.Parse()

	if *user == "" || *peer == "" {
		return errors.New("both -user and -peer are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{UserID: *user})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s (%s), chatting with %s\n", *addr, *user, *kind, *peer)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *user, *kind, *peer, *peerKind)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Ack   int64           `json:"ack"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundTypeJoined:
			var joined proto.JoinedData
			if err := json.Unmarshal(outbound.Data, &joined); err != nil {
				log.Printf("unmarshal joined: %v", err)
				continue
			}
			fmt.Printf("* joined as %s\n", joined.UserID)
		case proto.OutboundTypeReceiveMessage:
			var msg proto.MessagePayload
			if err := json.Unmarshal(outbound.Data, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			ts := time.Unix(msg.Timestamp, 0).Format("15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, msg.SenderID, msg.Body)
		case proto.OutboundTypeAck:
			var ack proto.AckData
			if err := json.Unmarshal(outbound.Data, &ack); err != nil {
				log.Printf("unmarshal ack: %v", err)
				continue
			}
			if !ack.Success {
				fmt.Printf("* send failed: %s\n", ack.Error)
			}
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("* error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
			}
		default:
			fmt.Printf("type=%s data=%s\n", outbound.Type, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, user, kind, peer, peerKind string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var ackSeq int64
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.SendMessageData{
				SenderID:     user,
				ReceiverID:   peer,
				SenderKind:   kind,
				ReceiverKind: peerKind,
				Body:         text,
			})
			if err != nil {
				log.Printf("marshal send_message: %v", err)
				return
			}
			ackSeq++
			if err := wsjson.Write(ctx, conn, proto.Inbound{
				Type: proto.InboundTypeSendMessage,
				Data: payload,
				Ack:  ackSeq,
			}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
