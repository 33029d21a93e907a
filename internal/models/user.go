package models

import "time"

// User is reference data owned by the identity subsystem. The chat core only
// reads it to decorate messages with sender info.
type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Status    *string   `db:"status" json:"status,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
