package models

import "time"

type ContentSource struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	Content     string    `db:"content" json:"content"`
	ContentType string    `db:"content_type" json:"content_type"`
	FetchedAt   time.Time `db:"fetched_at" json:"fetched_at"`
}

const (
	ContentSourceWebsite    = "website"
	ContentTypeBusinessInfo = "business_info"
)
