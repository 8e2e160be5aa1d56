package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Message represents a persisted chat message. Messages are never physically
// deleted; removal is expressed through the soft-delete flags.
type Message struct {
	ID             int           `db:"id" json:"id"`
	ConversationID int           `db:"conversation_id" json:"conversation_id"`
	SenderID       int           `db:"sender_id" json:"sender_id"`
	Content        string        `db:"content" json:"content"`
	Mentions       pq.Int64Array `db:"mentions" json:"mentions,omitempty"`
	LinkPreviews   LinkPreviews  `db:"link_previews" json:"link_previews,omitempty"`
	Edited         bool          `db:"edited" json:"edited"`
	DeletedForAll  bool          `db:"deleted_for_all" json:"deleted_for_all"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// MessageEdit is one entry of a message's append-only edit history.
type MessageEdit struct {
	ID           int       `db:"id" json:"id"`
	MessageID    int       `db:"message_id" json:"message_id"`
	PriorContent string    `db:"prior_content" json:"prior_content"`
	EditedAt     time.Time `db:"edited_at" json:"edited_at"`
}

// LinkPreview holds unfurled metadata for a URL found in a message.
type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// LinkPreviews is stored as a JSONB column.
type LinkPreviews []LinkPreview

func (p LinkPreviews) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *LinkPreviews) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("link_previews: expected []byte")
	}
	return json.Unmarshal(b, p)
}

// Reaction is one (message, user, emoji) row. The unique constraint on the
// triple makes reacting idempotent.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionGroup is the aggregated view of one emoji on one message.
type ReactionGroup struct {
	Emoji string `db:"emoji" json:"emoji"`
	Count int    `db:"count" json:"count"`
	Users []int  `json:"users"`
}
