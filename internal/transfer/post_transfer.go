package transfer

import "github.com/maheshrc27/postpilot/internal/models"

type GeneratedPost struct {
	Content     string `json:"content"`
	ImagePrompt string `json:"image_prompt"`
}

type GeneratePostRequest struct {
	AutoSchedule *bool  `json:"auto_schedule"`
	ScheduleDate string `json:"schedule_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type PublishPostRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

type ScheduleWeekResult struct {
	Success        bool           `json:"success"`
	PostsGenerated int            `json:"posts_generated"`
	Posts          []*models.Post `json:"posts"`
}

type DispatchItem struct {
	PostID         string `json:"post_id"`
	Success        bool   `json:"success"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type DispatchResult struct {
	RunID          string         `json:"run_id"`
	Success        bool           `json:"success"`
	PostsProcessed int            `json:"posts_processed"`
	Results        []DispatchItem `json:"results"`
}
