package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/calendar"
)

// occupiedStatuses are the states that claim a slot. A failed post does not.
var occupiedStatuses = []string{models.PostStatusScheduled, models.PostStatusPosted}

type SchedulerService interface {
	NextPostingDate(ctx context.Context) (time.Time, error)
	SlotsNeedingPosts(ctx context.Context, windowDays int) ([]time.Time, error)
	ScheduleWeek(ctx context.Context) (*transfer.ScheduleWeekResult, error)
}

type schedulerService struct {
	cfg config.Provider
	p   repository.PostRepository
	ps  PostService
	gen GeneratorService
	now func() time.Time
}

func NewSchedulerService(
	cfg config.Provider,
	p repository.PostRepository,
	ps PostService,
	gen GeneratorService) SchedulerService {
	return &schedulerService{
		cfg: cfg,
		p:   p,
		ps:  ps,
		gen: gen,
		now: time.Now,
	}
}

func postingPattern(cfg *config.Config) (calendar.Pattern, error) {
	p, err := calendar.ParsePattern(cfg.Posting.Days, cfg.Posting.Time, cfg.Posting.Timezone)
	if err != nil {
		return calendar.Pattern{}, fmt.Errorf("posting pattern: %w", err)
	}
	return p, nil
}

func (s *schedulerService) NextPostingDate(ctx context.Context) (time.Time, error) {
	pattern, err := postingPattern(s.cfg())
	if err != nil {
		return time.Time{}, err
	}
	return pattern.NextSlot(s.now())
}

// SlotsNeedingPosts lists the posting slots in the next windowDays days,
// today included, that have no scheduled or posted row at that exact instant.
func (s *schedulerService) SlotsNeedingPosts(ctx context.Context, windowDays int) ([]time.Time, error) {
	if windowDays <= 0 {
		return nil, ErrInvalidWindow
	}

	pattern, err := postingPattern(s.cfg())
	if err != nil {
		return nil, err
	}

	slots, err := pattern.SlotsWithin(s.now(), windowDays)
	if err != nil {
		return nil, err
	}

	var open []time.Time
	for _, slot := range slots {
		exists, err := s.p.ExistsForSlot(ctx, slot, occupiedStatuses)
		if err != nil {
			return nil, fmt.Errorf("error checking slot %s: %w", slot.Format(time.RFC3339), err)
		}
		if !exists {
			open = append(open, slot)
		}
	}

	return open, nil
}

// ScheduleWeek generates and stores a post for every open slot in the
// configured window. A slot that fails is logged and skipped.
func (s *schedulerService) ScheduleWeek(ctx context.Context) (*transfer.ScheduleWeekResult, error) {
	slots, err := s.SlotsNeedingPosts(ctx, s.cfg().Posting.WindowDays)
	if err != nil {
		return nil, err
	}

	result := &transfer.ScheduleWeekResult{Success: true, Posts: []*models.Post{}}
	for _, slot := range slots {
		gp, err := s.gen.Generate(ctx)
		if err != nil {
			slog.Error("Error generating post for slot", "slot", slot, "err", err)
			continue
		}

		slot := slot
		post, err := s.ps.Create(ctx, gp, &slot)
		if err != nil {
			slog.Error("Error saving post for slot", "slot", slot, "err", err)
			continue
		}

		result.Posts = append(result.Posts, post)
	}

	result.PostsGenerated = len(result.Posts)
	return result, nil
}
