package models

import "time"

// Notification types created by dispatch side effects.
const (
	NotificationMention  = "mention"
	NotificationReaction = "reaction"
	NotificationMessage  = "message"
)

// Notification is an inbox row for one user. Mutated only by read-state
// transitions, never deleted in normal flow.
type Notification struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	MessageID *int      `db:"message_id" json:"message_id,omitempty"`
	Type      string    `db:"type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InboxItem is a notification joined with its referencing message, as served
// by the inbox query endpoint.
type InboxItem struct {
	Notification
	Message *Message `json:"message,omitempty"`
}
