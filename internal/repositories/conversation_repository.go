package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, creatorID int, title string, participantIDs []int) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int) (models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	Participants(ctx context.Context, conversationID int) ([]int, error)
	IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error)
	UpsertReadState(ctx context.Context, conversationID int, userID int, lastReadMessageID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateConversation stores a conversation and its participant set. The
// creator is always a participant.
func (r *ConversationRepo) CreateConversation(ctx context.Context, creatorID int, title string, participantIDs []int) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer tx.Rollback()

	var conv models.Conversation
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (title, creator_id) VALUES ($1, $2) RETURNING id, title, creator_id, created_at`,
		title, creatorID).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	members := map[int]struct{}{creatorID: {}}
	for _, id := range participantIDs {
		members[id] = struct{}{}
	}
	for id := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			conv.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, title, creator_id, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListConversationsForUser returns conversations the user participates in.
func (r *ConversationRepo) ListConversationsForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	query := `SELECT c.id, c.title, c.creator_id, c.created_at FROM conversations c
        JOIN conversation_participants cp ON cp.conversation_id = c.id
        WHERE cp.user_id=$1
        ORDER BY c.created_at DESC`
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, query, userID)
	return convs, err
}

// Participants returns the user ids belonging to the conversation.
func (r *ConversationRepo) Participants(ctx context.Context, conversationID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM conversation_participants WHERE conversation_id=$1 ORDER BY user_id`, conversationID)
	return ids, err
}

// IsParticipant checks whether a user belongs to the conversation.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2)`,
		conversationID, userID)
	return exists, err
}

// UpsertReadState advances the user's read position. It never moves
// backwards.
func (r *ConversationRepo) UpsertReadState(ctx context.Context, conversationID int, userID int, lastReadMessageID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_read_state (conversation_id, user_id, last_read_message_id, updated_at)
         VALUES ($1, $2, $3, NOW())
         ON CONFLICT (conversation_id, user_id)
         DO UPDATE SET last_read_message_id = GREATEST(conversation_read_state.last_read_message_id, EXCLUDED.last_read_message_id),
                       updated_at = NOW()`,
		conversationID, userID, lastReadMessageID)
	return err
}
