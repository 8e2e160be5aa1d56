package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/dispatch"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/validation"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/conversations/:conversation_id/messages", handler.PostMessage)
	r.PATCH("/messages/:message_id", handler.EditMessage)
	r.GET("/messages/:message_id/edits", handler.EditHistory)
	r.POST("/messages/:message_id/reactions", handler.PostReaction)
	r.DELETE("/messages/:message_id/all", handler.DeleteMessageForAll)
	return r
}

func TestPostMessageSuccess(t *testing.T) {
	dispatcher := new(mocks.DispatcherMock)
	handler := NewMessageHandler(dispatcher, new(mocks.MessageRepositoryMock), validation.New(), nil)
	router := setupMessageRouter(handler)

	dispatcher.On("SendMessage", mock.Anything, 1, 9, "hello @2", []int{2}).
		Return(models.Message{ID: 3, ConversationID: 9, SenderID: 1, Content: "hello @2"}, nil).Once()

	body := bytes.NewBufferString(`{"content":"hello @2","mentions":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/9/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.Equal(t, 3, msg.ID)
	dispatcher.AssertExpectations(t)
}

func TestPostMessageEmptyContentRejected(t *testing.T) {
	dispatcher := new(mocks.DispatcherMock)
	handler := NewMessageHandler(dispatcher, new(mocks.MessageRepositoryMock), validation.New(), nil)
	router := setupMessageRouter(handler)

	body := bytes.NewBufferString(`{"content":""}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/9/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	dispatcher.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageNotParticipant(t *testing.T) {
	dispatcher := new(mocks.DispatcherMock)
	handler := NewMessageHandler(dispatcher, new(mocks.MessageRepositoryMock), validation.New(), nil)
	router := setupMessageRouter(handler)

	dispatcher.On("SendMessage", mock.Anything, 1, 9, "hi", []int(nil)).
		Return(models.Message{}, dispatch.ErrNotParticipant).Once()

	body := bytes.NewBufferString(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/9/messages", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditMessageSuccess(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.DispatcherMock), msgRepo, validation.New(), nil)
	router := setupMessageRouter(handler)

	msgRepo.On("EditMessage", mock.Anything, 3, 1, "edited").
		Return(models.Message{ID: 3, Content: "edited", Edited: true}, nil).Once()

	body := bytes.NewBufferString(`{"content":"edited"}`)
	req := httptest.NewRequest(http.MethodPatch, "/messages/3", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var msg models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
	assert.True(t, msg.Edited)
	msgRepo.AssertExpectations(t)
}

func TestEditMessageNotFound(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.DispatcherMock), msgRepo, validation.New(), nil)
	router := setupMessageRouter(handler)

	msgRepo.On("EditMessage", mock.Anything, 404, 1, "x").
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	body := bytes.NewBufferString(`{"content":"x"}`)
	req := httptest.NewRequest(http.MethodPatch, "/messages/404", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditHistorySuccess(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.DispatcherMock), msgRepo, validation.New(), nil)
	router := setupMessageRouter(handler)

	msgRepo.On("EditHistory", mock.Anything, 3).
		Return([]models.MessageEdit{{ID: 1, MessageID: 3, PriorContent: "original"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/3/edits", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	msgRepo.AssertExpectations(t)
}

func TestPostReactionSuccess(t *testing.T) {
	dispatcher := new(mocks.DispatcherMock)
	handler := NewMessageHandler(dispatcher, new(mocks.MessageRepositoryMock), validation.New(), nil)
	router := setupMessageRouter(handler)

	dispatcher.On("React", mock.Anything, 1, 3, "👍").
		Return([]models.ReactionGroup{{Emoji: "👍", Count: 1, Users: []int{1}}}, nil).Once()

	body := bytes.NewBufferString(`{"emoji":"👍"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/3/reactions", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dispatcher.AssertExpectations(t)
}

func TestPostReactionMessageNotFound(t *testing.T) {
	dispatcher := new(mocks.DispatcherMock)
	handler := NewMessageHandler(dispatcher, new(mocks.MessageRepositoryMock), validation.New(), nil)
	router := setupMessageRouter(handler)

	dispatcher.On("React", mock.Anything, 1, 404, "👍").
		Return(([]models.ReactionGroup)(nil), repositories.ErrMessageNotFound).Once()

	body := bytes.NewBufferString(`{"emoji":"👍"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages/404/reactions", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessageForAllSuccess(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.DispatcherMock), msgRepo, validation.New(), nil)
	router := setupMessageRouter(handler)

	msgRepo.On("DeleteMessageForAll", mock.Anything, 3, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/3/all", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	msgRepo.AssertExpectations(t)
}
