package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postRowColumns = []string{"id", "content", "image_prompt", "image_url", "status", "scheduled_for", "posted_at", "platform_post_id", "error", "image_error", "version", "claimed_until", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (PostRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostRepository(db), mock
}

func TestPostRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	slot := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO posts").
		WithArgs("post-1", "hello", "calm lake", "", models.PostStatusScheduled, slot).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("post-1"))

	id, err := repo.Create(context.Background(), &models.Post{
		ID:           "post-1",
		Content:      "hello",
		ImagePrompt:  "calm lake",
		Status:       models.PostStatusScheduled,
		ScheduledFor: &slot,
	})
	require.NoError(t, err)
	assert.Equal(t, "post-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("post-1", "hello", "", "", models.PostStatusDraft, nil, nil, "", "", "", int64(2), nil, now, now))

	post, err := repo.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, "post-1", post.ID)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Nil(t, post.ScheduledFor)
	assert.Nil(t, post.PostedAt)
	assert.Equal(t, int64(2), post.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListDue(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	first := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	second := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE status = \\$1 AND scheduled_for <= \\$2 AND \\(claimed_until IS NULL OR claimed_until <= \\$2\\) ORDER BY scheduled_for ASC").
		WithArgs(models.PostStatusScheduled, now).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("a", "one", "", "", models.PostStatusScheduled, first, nil, "", "", "", int64(0), nil, now, now).
			AddRow("b", "two", "", "https://img/x.png", models.PostStatusScheduled, second, nil, "", "", "", int64(1), nil, now, now))

	posts, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, first, *posts[0].ScheduledFor)
	assert.Equal(t, "https://img/x.png", posts[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ExistsForSlot(t *testing.T) {
	repo, mock := newMockRepo(t)
	slot := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	statuses := []string{models.PostStatusScheduled, models.PostStatusPosted}

	mock.ExpectQuery("WHERE scheduled_for = \\$1 AND status = ANY\\(\\$2\\)").
		WithArgs(slot, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("WHERE scheduled_for = \\$1 AND status = ANY\\(\\$2\\)").
		WithArgs(slot, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsForSlot(context.Background(), slot, statuses)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForSlot(context.Background(), slot, statuses)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Claim(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 3, 10, 0, 5, 0, time.UTC)
	leaseUntil := now.Add(2 * time.Minute)

	mock.ExpectQuery("SET version = version \\+ 1,\\s+claimed_until = \\$1.*AND \\(claimed_until IS NULL OR claimed_until <= \\$2\\)").
		WithArgs(leaseUntil, now, "post-1", int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	version, err := repo.Claim(context.Background(), "post-1", 3, []string{models.PostStatusScheduled}, now, leaseUntil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_ExposesLease(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	leaseUntil := now.Add(2 * time.Minute)

	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("post-1", "hello", "", "", models.PostStatusScheduled, now, nil, "", "", "", int64(4), leaseUntil, now, now))

	post, err := repo.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	require.NotNil(t, post.ClaimedUntil)
	assert.Equal(t, leaseUntil, *post.ClaimedUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Claim_Conflict(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SET version = version \\+ 1").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "post-1", int64(3), sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	_, err := repo.Claim(context.Background(), "post-1", 3, []string{models.PostStatusScheduled}, time.Now(), time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Claim_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SET version = version \\+ 1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM posts WHERE id = \\$1").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Claim(context.Background(), "gone", 0, []string{models.PostStatusScheduled}, time.Now(), time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_MarkPosted_ClearsError(t *testing.T) {
	repo, mock := newMockRepo(t)
	postedAt := time.Date(2024, 1, 3, 10, 0, 5, 0, time.UTC)

	mock.ExpectExec("SET status = \\$1,\\s+platform_post_id = \\$2,\\s+posted_at = \\$3,\\s+error = '',\\s+image_error = \\$4,\\s+claimed_until = NULL").
		WithArgs(models.PostStatusPosted, "fb_123", postedAt, "photo rejected", sqlmock.AnyArg(), "post-1", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkPosted(context.Background(), "post-1", 4, "fb_123", postedAt, "photo rejected")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_MarkFailed_StaleVersion(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE posts").
		WithArgs(models.PostStatusFailed, "boom", "", sqlmock.AnyArg(), "post-1", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err := repo.MarkFailed(context.Background(), "post-1", 4, "boom", "")
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Remove_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM posts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishAttemptRepository_LastDelivered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewPublishAttemptRepository(db)
	at := time.Date(2024, 1, 3, 10, 0, 6, 0, time.UTC)

	mock.ExpectQuery("WHERE post_id = \\$1 AND platform_post_id <> '' AND error_message = ''").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "platform_post_id", "error_message", "image_error", "fell_back", "created_at"}).
			AddRow(int64(7), "post-1", "page-1_1", "", "Invalid image URL", true, at))
	mock.ExpectQuery("WHERE post_id = \\$1 AND platform_post_id <> ''").
		WithArgs("post-2").
		WillReturnError(sql.ErrNoRows)

	pa, err := repo.LastDelivered(context.Background(), "post-1")
	require.NoError(t, err)
	require.NotNil(t, pa)
	assert.Equal(t, "page-1_1", pa.PlatformPostID)
	assert.True(t, pa.FellBack)

	pa, err = repo.LastDelivered(context.Background(), "post-2")
	require.NoError(t, err)
	assert.Nil(t, pa)
	assert.NoError(t, mock.ExpectationsWereMet())
}
