package queue

import (
	"time"

	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

type Queue struct {
	pr  repository.PostRepository
	ps  service.PostService
	fb  service.FacebookService
	now func() time.Time
}

func NewQueue(
	pr repository.PostRepository,
	ps service.PostService,
	fb service.FacebookService) *Queue {
	return &Queue{
		pr:  pr,
		ps:  ps,
		fb:  fb,
		now: time.Now,
	}
}

const (
	TaskTypeAttachImage = "image:attach"
	TaskTypePublishPost = "post:publish"
)

type PostPayload struct {
	PostID string `json:"post_id"`
}
