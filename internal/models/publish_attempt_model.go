package models

import "time"

type PublishAttempt struct {
	ID             int64     `db:"id" json:"id"`
	PostID         string    `db:"post_id" json:"post_id"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id,omitempty"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	ImageError     string    `db:"image_error" json:"image_error,omitempty"`
	FellBack       bool      `db:"fell_back" json:"fell_back"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
