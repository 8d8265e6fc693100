package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/workbridge/workbridge-server/internal/chat"
	"github.com/workbridge/workbridge-server/internal/proto"
)

// ChatHandlers provides HTTP handlers for the messaging endpoints.
type ChatHandlers struct {
	coordinator   *chat.Coordinator
	conversations *chat.Conversations
	log           *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(coordinator *chat.Coordinator, conversations *chat.Conversations, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		coordinator:   coordinator,
		conversations: conversations,
		log:           logger,
	}
}

// MessageResponse wraps a persisted message.
type MessageResponse struct {
	Success bool                  `json:"success"`
	Message *proto.MessagePayload `json:"message"`
}

// HistoryResponse wraps a pairwise message history.
type HistoryResponse struct {
	Success  bool                    `json:"success"`
	Messages []*proto.MessagePayload `json:"messages"`
}

// ConversationEntry is one row of a user's chat list.
type ConversationEntry struct {
	PartnerID   string `json:"partnerId"`
	PartnerKind string `json:"partnerKind"`
	Name        string `json:"name"`
	LastMessage string `json:"lastMessage"`
	Timestamp   int64  `json:"timestamp"`
}

// RequestEntry is one row of a user's request inbox.
type RequestEntry struct {
	Message    *proto.MessagePayload `json:"message"`
	SenderName string                `json:"senderName"`
}

// SubmitMessage handles a one-shot message submission.
// POST /api/messages
func (h *ChatHandlers) SubmitMessage(c *gin.Context) {
	var req chat.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	saved, err := h.coordinator.Send(c.Request.Context(), req)
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Success: true, Message: messagePayload(saved)})
}

// History returns all messages between two users, ascending by time.
// GET /api/messages/:user1/:user2
func (h *ChatHandlers) History(c *gin.Context) {
	messages, err := h.coordinator.History(c.Request.Context(), c.Param("user1"), c.Param("user2"))
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	payloads := make([]*proto.MessagePayload, 0, len(messages))
	for _, msg := range messages {
		payloads = append(payloads, messagePayload(msg))
	}

	c.JSON(http.StatusOK, HistoryResponse{Success: true, Messages: payloads})
}

// Chats returns the aggregated conversation list for a user, newest first.
// GET /api/chats/:userId
func (h *ChatHandlers) Chats(c *gin.Context) {
	conversations, err := h.conversations.List(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	entries := make([]ConversationEntry, 0, len(conversations))
	for _, conv := range conversations {
		entries = append(entries, conversationEntry(conv))
	}

	c.JSON(http.StatusOK, entries)
}

// Requests returns the request inbox for a user, newest first.
// GET /api/requests/:userId
func (h *ChatHandlers) Requests(c *gin.Context) {
	requests, err := h.conversations.Requests(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	entries := make([]RequestEntry, 0, len(requests))
	for _, req := range requests {
		entries = append(entries, RequestEntry{
			Message:    messagePayload(req.Message),
			SenderName: req.SenderName,
		})
	}

	c.JSON(http.StatusOK, entries)
}

func conversationEntry(conv *chat.Conversation) ConversationEntry {
	return ConversationEntry{
		PartnerID:   conv.PartnerID,
		PartnerKind: string(conv.PartnerKind),
		Name:        conv.PartnerName,
		LastMessage: conv.LastMessage,
		Timestamp:   conv.LastMessageAt.Unix(),
	}
}

func (h *ChatHandlers) respondChatError(c *gin.Context, err error) {
	switch {
	case chat.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("chat operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "server error"})
	}
}
