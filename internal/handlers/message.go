package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/dispatch"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/validation"
)

// MessageHandler manages message send/edit/react endpoints. Sends and
// reactions go through the dispatch layer so REST and websocket clients share
// fan-out and notification semantics.
type MessageHandler struct {
	dispatcher dispatch.Service
	messages   repositories.MessageRepository
	validator  *validation.Validator
	audit      *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(
	dispatcher dispatch.Service,
	messages repositories.MessageRepository,
	validator *validation.Validator,
	audit *telemetry.AuditEmitter,
) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		messages:   messages,
		validator:  validator,
		audit:      audit,
	}
}

type postMessageRequest struct {
	Content  string `json:"content" validate:"required,max=4000"`
	Mentions []int  `json:"mentions" validate:"dive,gt=0"`
}

// PostMessage stores a message and fans it out.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.dispatcher.SendMessage(c.Request.Context(), userID, conversationID, req.Content, req.Mentions)
	if err != nil {
		if errors.Is(err, dispatch.ErrNotParticipant) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("message %d sent to conversation %d", msg.ID, conversationID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, msg)
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// EditMessage replaces message content, keeping the append-only history.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messages.EditMessage(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit message"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// EditHistory returns a message's append-only edit history.
func (h *MessageHandler) EditHistory(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	edits, err := h.messages.EditHistory(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load edit history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"edits": edits})
}

type postReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

// PostReaction applies an idempotent emoji reaction.
func (h *MessageHandler) PostReaction(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req postReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID := c.GetInt("userID")
	groups, err := h.dispatcher.React(c.Request.Context(), userID, messageID, req.Emoji)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, dispatch.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply reaction"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": groups})
}

// DeleteMessageForAll marks a message as deleted for everyone (sender only).
func (h *MessageHandler) DeleteMessageForAll(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.messages.DeleteMessageForAll(c.Request.Context(), messageID, userID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	c.Status(http.StatusNoContent)
}
