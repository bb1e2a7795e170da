package models

import "time"

type Post struct {
	ID             string     `db:"id" json:"id"`
	Content        string     `db:"content" json:"content"`
	ImagePrompt    string     `db:"image_prompt" json:"image_prompt,omitempty"`
	ImageURL       string     `db:"image_url" json:"image_url,omitempty"`
	Status         string     `db:"status" json:"status"` // draft, scheduled, posted, failed
	ScheduledFor   *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	Error          string     `db:"error" json:"error,omitempty"`
	ImageError     string     `db:"image_error" json:"image_error,omitempty"`
	Version        int64      `db:"version" json:"version"`
	ClaimedUntil   *time.Time `db:"claimed_until" json:"claimed_until,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
	PostStatusDraft     = "draft"
)

// InitialStatus is scheduled when a posting time is known, draft otherwise.
func InitialStatus(scheduledFor *time.Time) string {
	if scheduledFor != nil {
		return PostStatusScheduled
	}
	return PostStatusDraft
}

func ValidStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPosted, PostStatusFailed:
		return true
	}
	return false
}
