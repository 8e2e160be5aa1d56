package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/validation"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	validator     *validation.Validator
	audit         *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	validator *validation.Validator,
	audit *telemetry.AuditEmitter,
) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		validator:     validator,
		audit:         audit,
	}
}

type createConversationRequest struct {
	Title          string `json:"title" validate:"max=200"`
	ParticipantIDs []int  `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
}

// CreateConversation creates a conversation including the caller.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := h.validator.ValidateStruct(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.CreateConversation(c.Request.Context(), userID, req.Title, req.ParticipantIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("conversation %d created with %d participants", conv.ID, len(req.ParticipantIDs)+1),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, conv)
}

// ListConversations returns the caller's conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	convs, err := h.conversations.ListConversationsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// ListMessages returns a page of conversation history for a participant.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), conversationID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
