package inbox

import (
	"context"
	"fmt"
	"time"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// Pagination bounds. A request may lower the limit but never exceed MaxLimit.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query is the per-request filter descriptor.
type Query struct {
	Read   *bool
	Before *time.Time
	Page   int
	Limit  int
	// Order is "asc" or "desc"; empty means descending (most recent first).
	Order string
}

// Page is one inbox result page plus pagination metadata.
type Page struct {
	Items []models.InboxItem `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// Service serves paginated, filterable views of a user's notifications.
type Service struct {
	notifications repositories.NotificationRepository
}

// NewService constructs a Service.
func NewService(notifications repositories.NotificationRepository) *Service {
	return &Service{notifications: notifications}
}

// Get runs an inbox query for one user. Results only ever contain rows owned
// by that user.
func (s *Service) Get(ctx context.Context, userID int, q Query) (Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	ascending := false
	switch q.Order {
	case "", "desc":
	case "asc":
		ascending = true
	default:
		return Page{}, fmt.Errorf("invalid order %q", q.Order)
	}

	filter := repositories.InboxFilter{
		Read:      q.Read,
		Before:    q.Before,
		Limit:     q.Limit,
		Offset:    (q.Page - 1) * q.Limit,
		Ascending: ascending,
	}

	items, total, err := s.notifications.ListInbox(ctx, userID, filter)
	if err != nil {
		return Page{}, fmt.Errorf("list inbox: %w", err)
	}

	return Page{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// MarkRead flips the read flag on one notification owned by the user.
func (s *Service) MarkRead(ctx context.Context, userID int, notificationID int) error {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}
