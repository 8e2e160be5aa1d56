package models

import "time"

// Conversation groups a fixed set of participants exchanging messages.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	CreatorID int       `db:"creator_id" json:"creator_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReadState tracks the last message a participant has read in a conversation.
type ReadState struct {
	ConversationID    int       `db:"conversation_id" json:"conversation_id"`
	UserID            int       `db:"user_id" json:"user_id"`
	LastReadMessageID int       `db:"last_read_message_id" json:"last_read_message_id"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
