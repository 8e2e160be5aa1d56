package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/dispatch"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateConversation(ctx context.Context, creatorID int, title string, participantIDs []int) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, title, participantIDs)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversationsForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationRepositoryMock) Participants(ctx context.Context, conversationID int) ([]int, error) {
	args := m.Called(ctx, conversationID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) UpsertReadState(ctx context.Context, conversationID int, userID int, lastReadMessageID int) error {
	args := m.Called(ctx, conversationID, userID, lastReadMessageID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID int, senderID int, content string, mentions []int, previews models.LinkPreviews) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content, mentions, previews)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID int, limit int, offset int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, senderID int, newContent string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, newContent)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error) {
	args := m.Called(ctx, messageID)
	var edits []models.MessageEdit
	if val := args.Get(0); val != nil {
		edits = val.([]models.MessageEdit)
	}
	return edits, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessageForAll(ctx context.Context, messageID int, senderID int) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (bool, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) Reactions(ctx context.Context, messageID int) ([]models.ReactionGroup, error) {
	args := m.Called(ctx, messageID)
	var groups []models.ReactionGroup
	if val := args.Get(0); val != nil {
		groups = val.([]models.ReactionGroup)
	}
	return groups, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) CreateNotification(ctx context.Context, userID int, messageID *int, notifType string) (models.Notification, error) {
	args := m.Called(ctx, userID, messageID, notifType)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) ListInbox(ctx context.Context, userID int, filter repositories.InboxFilter) ([]models.InboxItem, int, error) {
	args := m.Called(ctx, userID, filter)
	var items []models.InboxItem
	if val := args.Get(0); val != nil {
		items = val.([]models.InboxItem)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int, userID int) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) SendMessage(ctx context.Context, senderID int, conversationID int, content string, mentions []int) (models.Message, error) {
	args := m.Called(ctx, senderID, conversationID, content, mentions)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *DispatcherMock) React(ctx context.Context, userID int, messageID int, emoji string) ([]models.ReactionGroup, error) {
	args := m.Called(ctx, userID, messageID, emoji)
	var groups []models.ReactionGroup
	if val := args.Get(0); val != nil {
		groups = val.([]models.ReactionGroup)
	}
	return groups, args.Error(1)
}

func (m *DispatcherMock) MarkRead(ctx context.Context, userID int, conversationID int, messageID int) error {
	args := m.Called(ctx, userID, conversationID, messageID)
	return args.Error(0)
}

func (m *DispatcherMock) Typing(ctx context.Context, userID int, conversationID int) error {
	args := m.Called(ctx, userID, conversationID)
	return args.Error(0)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ dispatch.Service = (*DispatcherMock)(nil)
