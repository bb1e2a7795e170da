package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maheshrc27/postpilot/internal/mocks"
	"github.com/maheshrc27/postpilot/internal/mocks/servicemocks"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	held     bool
	err      error
	unlocked []string
}

func (l *fakeLocker) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.held = false
	l.unlocked = append(l.unlocked, token)
	return nil
}

var dispatchNow = time.Date(2024, 1, 3, 10, 5, 0, 0, time.UTC)

func newDispatchFixture(locker Locker) (*DispatchJob, *mocks.MockPostRepository, *servicemocks.MockFacebookService) {
	posts := new(mocks.MockPostRepository)
	fb := new(servicemocks.MockFacebookService)
	j := NewDispatchJob(posts, fb, locker)
	j.now = func() time.Time { return dispatchNow }
	return j, posts, fb
}

func TestDispatchJob_FailureDoesNotStopRun(t *testing.T) {
	locker := &fakeLocker{}
	j, posts, fb := newDispatchFixture(locker)

	due := []*models.Post{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	posts.On("ListDue", mock.Anything, dispatchNow).Return(due, nil)
	fb.On("Publish", mock.Anything, due[0]).Return("page_1", nil)
	fb.On("Publish", mock.Anything, due[1]).Return("", errors.New("(#200) Permissions error"))
	fb.On("Publish", mock.Anything, due[2]).Return("page_3", nil)

	result, err := j.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.RunID, "dispatch-"))
	assert.Equal(t, 3, result.PostsProcessed)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "page_1", result.Results[0].PlatformPostID)
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "(#200) Permissions error", result.Results[1].Error)
	assert.Equal(t, "c", result.Results[2].PostID)
	assert.True(t, result.Results[2].Success)

	assert.False(t, locker.held)
	assert.Equal(t, []string{result.RunID}, locker.unlocked)
}

func TestDispatchJob_NothingDue(t *testing.T) {
	j, posts, fb := newDispatchFixture(nil)
	posts.On("ListDue", mock.Anything, dispatchNow).Return(nil, nil)

	result, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.PostsProcessed)
	assert.NotNil(t, result.Results)
	fb.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDispatchJob_LockHeld(t *testing.T) {
	j, posts, _ := newDispatchFixture(&fakeLocker{held: true})

	_, err := j.Run(context.Background())
	assert.ErrorIs(t, err, ErrDispatchInProgress)
	posts.AssertNotCalled(t, "ListDue", mock.Anything, mock.Anything)
}

func TestDispatchJob_LockErrorStillRuns(t *testing.T) {
	j, posts, _ := newDispatchFixture(&fakeLocker{err: errors.New("redis: connection refused")})
	posts.On("ListDue", mock.Anything, dispatchNow).Return([]*models.Post{}, nil)

	result, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestDispatchJob_ListDueError(t *testing.T) {
	locker := &fakeLocker{}
	j, posts, _ := newDispatchFixture(locker)
	posts.On("ListDue", mock.Anything, dispatchNow).Return(nil, errors.New("db down"))

	_, err := j.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, locker.held)
}

func TestDispatchJob_DeliveredPostWithLostStatusCountsAsSent(t *testing.T) {
	j, posts, fb := newDispatchFixture(nil)

	due := []*models.Post{{ID: "a"}}
	posts.On("ListDue", mock.Anything, dispatchNow).Return(due, nil)
	fb.On("Publish", mock.Anything, due[0]).Return("page_1", errors.New("post delivered as page_1 but status update failed: db down"))

	result, err := j.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "page_1", result.Results[0].PlatformPostID)
	assert.Contains(t, result.Results[0].Error, "status update failed")
}
