package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// InboxFilter narrows and pages an inbox query. Zero values mean "no filter";
// the service layer is responsible for bounding Limit.
type InboxFilter struct {
	Read   *bool
	Before *time.Time
	Limit  int
	Offset int
	// Ascending orders by created_at ascending; default is descending.
	Ascending bool
}

// NotificationRepository defines interactions for inbox notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, userID int, messageID *int, notifType string) (models.Notification, error)
	ListInbox(ctx context.Context, userID int, filter InboxFilter) ([]models.InboxItem, int, error)
	MarkRead(ctx context.Context, notificationID int, userID int) error
}

// NotificationRepo is a sqlx-backed repository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification stores an inbox row for a user.
func (r *NotificationRepo) CreateNotification(ctx context.Context, userID int, messageID *int, notifType string) (models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (user_id, message_id, type)
         VALUES ($1, $2, $3) RETURNING id, user_id, message_id, type, read, created_at`,
		userID, messageID, notifType).StructScan(&n)
	return n, err
}

// ListInbox returns the user's notifications joined with their messages,
// plus the total row count for the filter. Rows owned by other users are
// unreachable: every predicate is anchored on user_id.
func (r *NotificationRepo) ListInbox(ctx context.Context, userID int, filter InboxFilter) ([]models.InboxItem, int, error) {
	where := `n.user_id = $1`
	args := []interface{}{userID}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		where += fmt.Sprintf(` AND n.read = $%d`, len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		where += fmt.Sprintf(` AND n.created_at <= $%d`, len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM notifications n WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT
            n.id, n.user_id, n.message_id, n.type, n.read, n.created_at,
            m.id AS msg_id, m.conversation_id, m.sender_id, m.content, m.mentions,
            m.link_previews, m.edited, m.deleted_for_all, m.created_at AS msg_created_at
        FROM notifications n
        LEFT JOIN messages m ON m.id = n.message_id
        WHERE %s
        ORDER BY n.created_at %s, n.id %s
        LIMIT $%d OFFSET $%d`, where, direction, direction, len(args)-1, len(args))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]models.InboxItem, 0)
	for rows.Next() {
		var item models.InboxItem
		var msg models.Message
		var msgID, convID, senderID sql.NullInt64
		var content sql.NullString
		var edited, deleted sql.NullBool
		var msgCreatedAt sql.NullTime
		dest := []interface{}{
			&item.ID, &item.UserID, &item.MessageID, &item.Type, &item.Read, &item.CreatedAt,
			&msgID, &convID, &senderID, &content, &msg.Mentions,
			&msg.LinkPreviews, &edited, &deleted, &msgCreatedAt,
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		if msgID.Valid {
			msg.ID = int(msgID.Int64)
			msg.ConversationID = int(convID.Int64)
			msg.SenderID = int(senderID.Int64)
			msg.Content = content.String
			msg.Edited = edited.Bool
			msg.DeletedForAll = deleted.Bool
			msg.CreatedAt = msgCreatedAt.Time
			item.Message = &msg
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// MarkRead flips the read flag for a notification owned by the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id=$1 AND user_id=$2`, notificationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
