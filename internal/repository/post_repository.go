package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrVersionConflict = errors.New("post was modified concurrently")
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (string, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, status string) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	ExistsForSlot(ctx context.Context, slot time.Time, statuses []string) (bool, error)
	SetImage(ctx context.Context, id, imageURL string) error
	Claim(ctx context.Context, id string, version int64, statuses []string, now, leaseUntil time.Time) (int64, error)
	MarkPosted(ctx context.Context, id string, version int64, platformPostID string, postedAt time.Time, imageErr string) error
	MarkFailed(ctx context.Context, id string, version int64, errMsg, imageErr string) error
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, content, image_prompt, image_url, status, scheduled_for, posted_at, platform_post_id, error, image_error, version, claimed_until, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var scheduledFor, postedAt, claimedUntil sql.NullTime

	err := row.Scan(&post.ID, &post.Content, &post.ImagePrompt, &post.ImageURL, &post.Status,
		&scheduledFor, &postedAt, &post.PlatformPostID, &post.Error, &post.ImageError,
		&post.Version, &claimedUntil, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if scheduledFor.Valid {
		t := scheduledFor.Time
		post.ScheduledFor = &t
	}
	if postedAt.Valid {
		t := postedAt.Time
		post.PostedAt = &t
	}
	if claimedUntil.Valid {
		t := claimedUntil.Time
		post.ClaimedUntil = &t
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	query := `
		INSERT INTO posts (id, content, image_prompt, image_url, status, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var scheduledFor sql.NullTime
	if post.ScheduledFor != nil {
		scheduledFor = sql.NullTime{Time: *post.ScheduledFor, Valid: true}
	}

	var id string
	err := r.db.QueryRowContext(ctx, query, post.ID, post.Content, post.ImagePrompt, post.ImageURL, post.Status, scheduledFor).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

// List returns posts newest first, optionally restricted to one status.
func (r *postRepository) List(ctx context.Context, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	return r.query(ctx, query, status)
}

// ListDue returns scheduled posts whose time has arrived, oldest slot first.
// Posts held by an unexpired publish lease are left out.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_for <= $2 AND (claimed_until IS NULL OR claimed_until <= $2) ORDER BY scheduled_for ASC`
	return r.query(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ExistsForSlot(ctx context.Context, slot time.Time, statuses []string) (bool, error) {
	query := `SELECT 1 FROM posts WHERE scheduled_for = $1 AND status = ANY($2) LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, slot, pq.Array(statuses)).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) SetImage(ctx context.Context, id, imageURL string) error {
	query := `
		UPDATE posts
		SET image_url = $1,
			updated_at = $2
		WHERE id = $3
	`
	return r.execOne(ctx, ErrPostNotFound, query, imageURL, time.Now(), id)
}

// Claim takes a publish lease on the row until leaseUntil and bumps its
// version, provided it still has the given version and one of the given
// statuses and no other lease is live at now. It returns the new version.
// A row that moved on or is leased elsewhere yields ErrVersionConflict.
func (r *postRepository) Claim(ctx context.Context, id string, version int64, statuses []string, now, leaseUntil time.Time) (int64, error) {
	query := `
		UPDATE posts
		SET version = version + 1,
			claimed_until = $1,
			updated_at = $2
		WHERE id = $3 AND version = $4 AND status = ANY($5)
			AND (claimed_until IS NULL OR claimed_until <= $2)
		RETURNING version
	`

	var claimed int64
	err := r.db.QueryRowContext(ctx, query, leaseUntil, now, id, version, pq.Array(statuses)).Scan(&claimed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, r.missOrConflict(ctx, id)
		}
		slog.Info(err.Error())
		return 0, err
	}

	return claimed, nil
}

func (r *postRepository) MarkPosted(ctx context.Context, id string, version int64, platformPostID string, postedAt time.Time, imageErr string) error {
	query := `
		UPDATE posts
		SET status = $1,
			platform_post_id = $2,
			posted_at = $3,
			error = '',
			image_error = $4,
			claimed_until = NULL,
			version = version + 1,
			updated_at = $5
		WHERE id = $6 AND version = $7
	`
	err := r.execOne(ctx, ErrVersionConflict, query, models.PostStatusPosted, platformPostID, postedAt, imageErr, time.Now(), id, version)
	if errors.Is(err, ErrVersionConflict) {
		return r.missOrConflict(ctx, id)
	}
	return err
}

func (r *postRepository) MarkFailed(ctx context.Context, id string, version int64, errMsg, imageErr string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error = $2,
			image_error = $3,
			claimed_until = NULL,
			version = version + 1,
			updated_at = $4
		WHERE id = $5 AND version = $6
	`
	err := r.execOne(ctx, ErrVersionConflict, query, models.PostStatusFailed, errMsg, imageErr, time.Now(), id, version)
	if errors.Is(err, ErrVersionConflict) {
		return r.missOrConflict(ctx, id)
	}
	return err
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM posts WHERE id = $1`
	return r.execOne(ctx, ErrPostNotFound, query, id)
}

// execOne runs a single-row statement and reports notFound when nothing matched.
func (r *postRepository) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (r *postRepository) missOrConflict(ctx context.Context, id string) error {
	var result int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = $1`, id).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		slog.Info(err.Error())
		return err
	}
	return ErrVersionConflict
}
