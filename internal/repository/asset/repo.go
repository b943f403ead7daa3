package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Repo is the primary store for assets, backed by Postgres. It is the system
// of record; the search index is a derived projection of its rows.
type Repo struct {
	db *sql.DB
}

// New creates an asset repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// EnsureSchema creates the assets table if it does not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL,
			location   TEXT NOT NULL,
			media_type TEXT NOT NULL,
			summary    TEXT NOT NULL,
			keywords   TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create assets table: %w", err)
	}
	return nil
}

// Insert persists a new asset row.
func (r *Repo) Insert(ctx context.Context, a *domain.Asset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (id, name, location, media_type, summary, keywords, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID(), a.Name(), a.Location(), a.MediaType(), a.Summary(),
		pq.Array(a.Keywords()), time.UnixMilli(a.CreatedAt()).UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert asset %s: %w", a.ID(), err)
	}
	return nil
}

// FindByID returns an asset by ID, or domain.ErrNotFound.
func (r *Repo) FindByID(ctx context.Context, id string) (domain.Asset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, location, media_type, summary, keywords, created_at
		FROM assets WHERE id = $1`, id)

	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Asset{}, domain.ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("find asset %s: %w", id, err)
	}
	return a, nil
}

// Delete removes an asset row. Returns domain.ErrNotFound if no row matched.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete asset %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all assets, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, location, media_type, summary, keywords, created_at
		FROM assets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("list assets: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping primary store: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (r *Repo) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for primary store: %w", ctx.Err())
		case <-ticker.C:
			if err := r.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// scanner abstracts *sql.Row and *sql.Rows for scanAsset.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (domain.Asset, error) {
	var (
		id, name, location, mediaType, summary string
		keywords                               pq.StringArray
		createdAt                              time.Time
	)
	if err := s.Scan(&id, &name, &location, &mediaType, &summary, &keywords, &createdAt); err != nil {
		return domain.Asset{}, err
	}
	return domain.Reconstruct(id, name, location, mediaType, summary, keywords, createdAt.UnixMilli()), nil
}
