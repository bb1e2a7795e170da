package job

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/service"
)

type ScheduleWeekJob struct {
	s service.SchedulerService
}

func NewScheduleWeekJob(s service.SchedulerService) *ScheduleWeekJob {
	return &ScheduleWeekJob{s: s}
}

func (j *ScheduleWeekJob) Run() {
	result, err := j.s.ScheduleWeek(context.Background())
	if err != nil {
		slog.Error("Weekly scheduling failed", "err", err)
		return
	}
	slog.Info("Weekly scheduling finished", "posts_generated", result.PostsGenerated)
}
