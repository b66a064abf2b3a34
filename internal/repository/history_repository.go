package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/basel-ax/imagegate/internal/domain"
)

// HistoryRepository defines the interface for generation history access.
// The table is owned by the storage service; this side only reads it.
type HistoryRepository interface {
	List(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
}

// PostgresHistoryRepository implements HistoryRepository for PostgreSQL
type PostgresHistoryRepository struct {
	db *sql.DB
}

// NewPostgresHistoryRepository creates a new PostgreSQL history repository
func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// List retrieves up to limit generation records, newest first
func (r *PostgresHistoryRepository) List(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	query := `
		SELECT id, prompt, model, size, count, images, created_at
		FROM image_generations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0)
	for rows.Next() {
		var rec domain.HistoryRecord
		var images pq.StringArray
		if err := rows.Scan(
			&rec.ID,
			&rec.Prompt,
			&rec.Model,
			&rec.Size,
			&rec.Count,
			&images,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Images = []string(images)
		if rec.Images == nil {
			rec.Images = []string{}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return records, nil
}

// HistorySource adapts a repository to domain.HistorySource with a fixed
// page size
type HistorySource struct {
	repo  HistoryRepository
	limit int
}

// NewHistorySource wraps repo so every listing reads at most limit rows
func NewHistorySource(repo HistoryRepository, limit int) *HistorySource {
	return &HistorySource{repo: repo, limit: limit}
}

// ListHistory implements domain.HistorySource
func (s *HistorySource) ListHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	return s.repo.List(ctx, s.limit)
}
