package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// maxResults caps every query. Results past the cap are not reachable.
const maxResults = 50

// Hit is the public search projection of an indexed asset.
type Hit struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score,omitempty"`
}

// Service resolves free-text queries against the search mirror.
type Service struct {
	index  Index
	logger *zap.Logger
}

// New creates a search service.
func New(index Index, logger *zap.Logger) *Service {
	return &Service{index: index, logger: logger}
}

// Query runs a free-text search. Entries missing the projection fields are
// dropped rather than failing the call.
func (s *Service) Query(ctx context.Context, text string) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrInvalidInput)
	}

	entries, err := s.index.Search(ctx, text, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search index: %w: %w", domain.ErrSearchUnavailable, err)
	}

	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		name, hasName := e.Fields["name"]
		summary, hasSummary := e.Fields["summary"]
		if e.ID == "" || !hasName || !hasSummary {
			s.logger.Debug("dropping malformed search entry", zap.String("entry_id", e.ID))
			continue
		}
		hits = append(hits, Hit{ID: e.ID, Name: name, Summary: summary, Score: e.Score})
	}
	return hits, nil
}
