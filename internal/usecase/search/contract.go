package search

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Index is the full-text search mirror queried by free text.
type Index interface {
	Search(ctx context.Context, text string, limit int) ([]domain.IndexEntry, error)
}
