package mocks

import (
	"context"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockPostRepository struct {
	mock.Mock
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	args := m.Called(ctx, post)
	return args.String(0), args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, status string) ([]*models.Post, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) ExistsForSlot(ctx context.Context, slot time.Time, statuses []string) (bool, error) {
	args := m.Called(ctx, slot, statuses)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) SetImage(ctx context.Context, id, imageURL string) error {
	return m.Called(ctx, id, imageURL).Error(0)
}

func (m *MockPostRepository) Claim(ctx context.Context, id string, version int64, statuses []string, now, leaseUntil time.Time) (int64, error) {
	args := m.Called(ctx, id, version, statuses, now, leaseUntil)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) MarkPosted(ctx context.Context, id string, version int64, platformPostID string, postedAt time.Time, imageErr string) error {
	return m.Called(ctx, id, version, platformPostID, postedAt, imageErr).Error(0)
}

func (m *MockPostRepository) MarkFailed(ctx context.Context, id string, version int64, errMsg, imageErr string) error {
	return m.Called(ctx, id, version, errMsg, imageErr).Error(0)
}

func (m *MockPostRepository) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockPublishAttemptRepository struct {
	mock.Mock
}

var _ repository.PublishAttemptRepository = (*MockPublishAttemptRepository)(nil)

func (m *MockPublishAttemptRepository) Create(ctx context.Context, pa *models.PublishAttempt) (int64, error) {
	args := m.Called(ctx, pa)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPublishAttemptRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PublishAttempt), args.Error(1)
}

func (m *MockPublishAttemptRepository) LastDelivered(ctx context.Context, postID string) (*models.PublishAttempt, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublishAttempt), args.Error(1)
}

type MockContentSourceRepository struct {
	mock.Mock
}

var _ repository.ContentSourceRepository = (*MockContentSourceRepository)(nil)

func (m *MockContentSourceRepository) Create(ctx context.Context, cs *models.ContentSource) (string, error) {
	args := m.Called(ctx, cs)
	return args.String(0), args.Error(1)
}

func (m *MockContentSourceRepository) ListRecent(ctx context.Context, limit int) ([]*models.ContentSource, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ContentSource), args.Error(1)
}
