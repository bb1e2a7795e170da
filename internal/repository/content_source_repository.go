package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type ContentSourceRepository interface {
	Create(ctx context.Context, cs *models.ContentSource) (string, error)
	ListRecent(ctx context.Context, limit int) ([]*models.ContentSource, error)
}

type contentSourceRepository struct {
	db *sql.DB
}

func NewContentSourceRepository(db *sql.DB) ContentSourceRepository {
	return &contentSourceRepository{db: db}
}

func (r *contentSourceRepository) Create(ctx context.Context, cs *models.ContentSource) (string, error) {
	query := `
		INSERT INTO content_sources (id, source, content, content_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query, cs.ID, cs.Source, cs.Content, cs.ContentType).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return id, nil
}

// ListRecent returns the most recently fetched sources first.
func (r *contentSourceRepository) ListRecent(ctx context.Context, limit int) ([]*models.ContentSource, error) {
	query := `SELECT id, source, content, content_type, fetched_at FROM content_sources ORDER BY fetched_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var sources []*models.ContentSource
	for rows.Next() {
		var cs models.ContentSource
		if err := rows.Scan(&cs.ID, &cs.Source, &cs.Content, &cs.ContentType, &cs.FetchedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sources = append(sources, &cs)
	}
	return sources, nil
}
