package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/inbox"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/validation"
)

func setupInboxRouter(handler *InboxHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/inbox", handler.GetInbox)
	r.POST("/inbox/:notification_id/read", handler.MarkRead)
	return r
}

func TestGetInboxSuccess(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	notifRepo.On("ListInbox", mock.Anything, 1, mock.Anything).
		Return([]models.InboxItem{
			{Notification: models.Notification{ID: 5, UserID: 1, Type: models.NotificationMention}},
		}, 1, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/inbox", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page inbox.Page
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, inbox.DefaultLimit, page.Limit)
	notifRepo.AssertExpectations(t)
}

func TestGetInboxFiltersForwarded(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	notifRepo.On("ListInbox", mock.Anything, 1, mock.MatchedBy(func(f repositories.InboxFilter) bool {
		return f.Read != nil && !*f.Read &&
			f.Before != nil && f.Before.Year() == 2024 &&
			f.Limit == 10 && f.Offset == 10 && f.Ascending
	})).Return([]models.InboxItem{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet,
		"/inbox?read=false&created_at=2024-05-01T00:00:00Z&page=2&limit=10&order=asc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	notifRepo.AssertExpectations(t)
}

func TestGetInboxRejectsBadTimestamp(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/inbox?created_at=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	notifRepo.AssertNotCalled(t, "ListInbox", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetInboxRejectsBadOrder(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/inbox?order=sideways", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadSuccess(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	notifRepo.On("MarkRead", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/inbox/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	notifRepo.AssertExpectations(t)
}

func TestMarkReadNotFound(t *testing.T) {
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := NewInboxHandler(inbox.NewService(notifRepo), validation.New())
	router := setupInboxRouter(handler)

	notifRepo.On("MarkRead", mock.Anything, 99, 1).
		Return(repositories.ErrNotificationNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/inbox/99/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
