package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/inbox"
	"messaging-service/internal/repositories"
	"messaging-service/internal/validation"
)

// InboxHandler serves the inbox query endpoint.
type InboxHandler struct {
	service   *inbox.Service
	validator *validation.Validator
}

// NewInboxHandler builds an InboxHandler.
func NewInboxHandler(service *inbox.Service, validator *validation.Validator) *InboxHandler {
	return &InboxHandler{service: service, validator: validator}
}

type inboxQueryParams struct {
	Read      *bool  `form:"read"`
	CreatedAt string `form:"created_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Page      int    `form:"page" validate:"omitempty,gte=1"`
	Limit     int    `form:"limit" validate:"omitempty,gte=1"`
	Order     string `form:"order" validate:"omitempty,oneof=asc desc"`
}

// GetInbox returns a filtered, paginated view of the caller's notifications.
func (h *InboxHandler) GetInbox(c *gin.Context) {
	var params inboxQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := h.validator.ValidateStruct(&params); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	query := inbox.Query{
		Read:  params.Read,
		Page:  params.Page,
		Limit: params.Limit,
		Order: params.Order,
	}
	if params.CreatedAt != "" {
		bound, err := time.Parse(time.RFC3339, params.CreatedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_at"})
			return
		}
		query.Before = &bound
	}

	userID := c.GetInt("userID")
	page, err := h.service.Get(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load inbox"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// MarkRead flips the read flag on one of the caller's notifications.
func (h *InboxHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.service.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notification read"})
		return
	}
	c.Status(http.StatusNoContent)
}
