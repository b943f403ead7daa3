package catalog

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// BlobStore persists raw asset bytes and returns an opaque location.
type BlobStore interface {
	Store(ctx context.Context, data []byte, name string) (string, error)
}

// Records defines the system-of-record contract for asset metadata.
type Records interface {
	Insert(ctx context.Context, asset *domain.Asset) error
	FindByID(ctx context.Context, id string) (domain.Asset, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Asset, error)
}

// Mirror is the best-effort full-text index kept eventually consistent
// with Records.
type Mirror interface {
	Upsert(ctx context.Context, asset *domain.Asset) error
	Delete(ctx context.Context, id string) error
	Reset(ctx context.Context) error
}
