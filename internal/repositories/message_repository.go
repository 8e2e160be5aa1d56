package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for messages, edits and reactions.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID int, senderID int, content string, mentions []int, previews models.LinkPreviews) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int, limit int, offset int) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID int, senderID int, newContent string) (models.Message, error)
	EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error)
	DeleteMessageForAll(ctx context.Context, messageID int, senderID int) error
	AddReaction(ctx context.Context, messageID int, userID int, emoji string) (bool, error)
	Reactions(ctx context.Context, messageID int) ([]models.ReactionGroup, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, mentions, link_previews, edited, deleted_for_all, created_at`

// CreateMessage stores a message in a conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID int, senderID int, content string, mentions []int, previews models.LinkPreviews) (models.Message, error) {
	mentionIDs := make(pq.Int64Array, 0, len(mentions))
	for _, id := range mentions {
		mentionIDs = append(mentionIDs, int64(id))
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content, mentions, link_previews)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		conversationID, senderID, content, mentionIDs, previews).StructScan(&msg)
	return msg, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns conversation messages newest first, excluding those
// deleted for all.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int, limit int, offset int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE conversation_id=$1 AND deleted_for_all = FALSE
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, conversationID, limit, offset)
	return msgs, err
}

// EditMessage replaces the content, appending the prior content to the edit
// history in the same transaction. Only the sender may edit.
func (r *MessageRepo) EditMessage(ctx context.Context, messageID int, senderID int, newContent string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var msg models.Message
	err = tx.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1 AND sender_id=$2 FOR UPDATE`,
		messageID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO message_edits (message_id, prior_content) VALUES ($1, $2)`,
		messageID, msg.Content); err != nil {
		return models.Message{}, err
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE messages SET content=$1, edited=TRUE WHERE id=$2 RETURNING `+messageColumns,
		newContent, messageID).StructScan(&msg)
	if err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// EditHistory returns the append-only edit history, oldest first.
func (r *MessageRepo) EditHistory(ctx context.Context, messageID int) ([]models.MessageEdit, error) {
	var edits []models.MessageEdit
	err := r.db.SelectContext(ctx, &edits,
		`SELECT id, message_id, prior_content, edited_at FROM message_edits WHERE message_id=$1 ORDER BY edited_at ASC`,
		messageID)
	return edits, err
}

// DeleteMessageForAll marks a message as deleted for everyone (sender only).
func (r *MessageRepo) DeleteMessageForAll(ctx context.Context, messageID int, senderID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted_for_all = TRUE WHERE id=$1 AND sender_id=$2`, messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// AddReaction records a (message, user, emoji) reaction. Reports whether a
// new row was inserted; a repeated identical reaction is a no-op.
func (r *MessageRepo) AddReaction(ctx context.Context, messageID int, userID int, emoji string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         ON CONFLICT (message_id, user_id, emoji) DO NOTHING`,
		messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Reactions returns the aggregated emoji groups for a message.
func (r *MessageRepo) Reactions(ctx context.Context, messageID int) ([]models.ReactionGroup, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT emoji, user_id FROM reactions WHERE message_id=$1 ORDER BY emoji, created_at`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.ReactionGroup, 0)
	index := map[string]int{}
	for rows.Next() {
		var emoji string
		var userID int
		if err := rows.Scan(&emoji, &userID); err != nil {
			return nil, err
		}
		i, ok := index[emoji]
		if !ok {
			i = len(groups)
			index[emoji] = i
			groups = append(groups, models.ReactionGroup{Emoji: emoji})
		}
		groups[i].Count++
		groups[i].Users = append(groups[i].Users, userID)
	}
	return groups, rows.Err()
}
