package models

import "time"

// Message represents a chat message. RecipientID is nil for public messages.
// SenderUsername and SenderAvatar are populated by joining the users table;
// IsRead is derived per viewer when listing history.
type Message struct {
	ID             int       `db:"id" json:"id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	RecipientID    *int      `db:"recipient_id" json:"recipient_id,omitempty"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	SenderUsername string    `db:"sender_username" json:"sender_username"`
	SenderAvatar   *string   `db:"sender_avatar" json:"sender_avatar,omitempty"`
	IsRead         bool      `db:"is_read" json:"is_read"`
}

// IsPrivate reports whether the message is addressed to a single recipient.
func (m Message) IsPrivate() bool {
	return m.RecipientID != nil
}

// Participants identifies the sender and optional recipient of a message.
type Participants struct {
	SenderID    int  `db:"sender_id"`
	RecipientID *int `db:"recipient_id"`
}
