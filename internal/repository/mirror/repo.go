package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
)

const (
	keyPrefix = domain.KeyPrefix + "search:"
	idxName   = keyPrefix + "idx"
)

// store is the consumer interface for the search index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo mirrors asset metadata into a RediSearch full-text index. It is a
// derived projection of the primary store, rebuildable at any time.
type Repo struct {
	store store
}

// New creates a search-index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the FT index if it does not already exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, idxName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", idxName, err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(idxName).
		Prefix(keyPrefix).
		TextWithWeight("name", 2).
		Text("summary").
		Text("keywords").
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", idxName, err)
	}
	return nil
}

// Reset drops the FT index and recreates it empty, discarding stale
// documents before a rebuild. A missing index is not an error.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, idxName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", idxName, err)
	}
	return r.EnsureIndex(ctx)
}

// Upsert writes the searchable projection of an asset into the index.
func (r *Repo) Upsert(ctx context.Context, a *domain.Asset) error {
	fields := map[string]string{
		"name":     a.Name(),
		"summary":  a.Summary(),
		"keywords": strings.Join(a.Keywords(), ", "),
	}
	if err := r.store.HSet(ctx, docKey(a.ID()), fields); err != nil {
		return fmt.Errorf("index upsert %s: %w", a.ID(), err)
	}
	return nil
}

// Delete removes an asset's document from the index. Deleting an absent
// document is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, docKey(id)); err != nil {
		return fmt.Errorf("index delete %s: %w", id, err)
	}
	return nil
}

// Search runs a fuzzy all-terms full-text query over name, summary and
// keywords, returning at most limit raw entries.
func (r *Repo) Search(ctx context.Context, text string, limit int) ([]domain.IndexEntry, error) {
	query := buildQuery(text)
	if query == "" {
		return nil, nil
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    idxName,
		Query:        query,
		Limit:        limit,
		ReturnFields: []string{"name", "summary"},
	})
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	entries := make([]domain.IndexEntry, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		entries = append(entries, domain.IndexEntry{
			ID:     strings.TrimPrefix(e.Key, keyPrefix),
			Score:  e.Score,
			Fields: e.Fields,
		})
	}
	return entries, nil
}

func docKey(id string) string {
	return keyPrefix + id
}
