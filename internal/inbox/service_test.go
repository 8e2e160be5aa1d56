package inbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/inbox"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func TestGetAppliesDefaults(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	repo.On("ListInbox", mock.Anything, 1, repositories.InboxFilter{
		Limit:  inbox.DefaultLimit,
		Offset: 0,
	}).Return([]models.InboxItem{}, 0, nil).Once()

	page, err := svc.Get(context.Background(), 1, inbox.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, inbox.DefaultLimit, page.Limit)
	repo.AssertExpectations(t)
}

func TestGetClampsLimitToCeiling(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	repo.On("ListInbox", mock.Anything, 1, repositories.InboxFilter{
		Limit:  inbox.MaxLimit,
		Offset: inbox.MaxLimit,
	}).Return([]models.InboxItem{}, 0, nil).Once()

	page, err := svc.Get(context.Background(), 1, inbox.Query{Page: 2, Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, inbox.MaxLimit, page.Limit)
	repo.AssertExpectations(t)
}

func TestGetNormalizesPage(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	repo.On("ListInbox", mock.Anything, 1, repositories.InboxFilter{
		Limit:  inbox.DefaultLimit,
		Offset: 0,
	}).Return([]models.InboxItem{}, 0, nil).Once()

	page, err := svc.Get(context.Background(), 1, inbox.Query{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
}

func TestGetOffsetFollowsPage(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	repo.On("ListInbox", mock.Anything, 1, repositories.InboxFilter{
		Limit:  10,
		Offset: 40,
	}).Return([]models.InboxItem{}, 120, nil).Once()

	page, err := svc.Get(context.Background(), 1, inbox.Query{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 120, page.Total)
	repo.AssertExpectations(t)
}

func TestGetPassesFilters(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	unread := false
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo.On("ListInbox", mock.Anything, 7, repositories.InboxFilter{
		Read:      &unread,
		Before:    &cutoff,
		Limit:     inbox.DefaultLimit,
		Offset:    0,
		Ascending: true,
	}).Return([]models.InboxItem{}, 0, nil).Once()

	_, err := svc.Get(context.Background(), 7, inbox.Query{Read: &unread, Before: &cutoff, Order: "asc"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetRejectsUnknownOrder(t *testing.T) {
	svc := inbox.NewService(new(mocks.NotificationRepositoryMock))

	_, err := svc.Get(context.Background(), 1, inbox.Query{Order: "sideways"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order")
}

func TestMarkReadScopesToUser(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	svc := inbox.NewService(repo)

	repo.On("MarkRead", mock.Anything, 42, 7).Return(repositories.ErrNotificationNotFound).Once()

	err := svc.MarkRead(context.Background(), 7, 42)
	require.ErrorIs(t, err, repositories.ErrNotificationNotFound)
	repo.AssertExpectations(t)
}
