package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
)

const defaultMaxAttempts = 5

// Service orchestrates ingestion and deletion across the blob store, the
// primary record store and the best-effort search mirror.
type Service struct {
	blobs       BlobStore
	records     Records
	mirror      Mirror
	summarizer  domain.Summarizer
	logger      *zap.Logger
	maxAttempts int
}

// New creates a catalog service.
func New(blobs BlobStore, records Records, mirror Mirror, summarizer domain.Summarizer, logger *zap.Logger) *Service {
	return &Service{
		blobs:       blobs,
		records:     records,
		mirror:      mirror,
		summarizer:  summarizer,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
	}
}

// WithMaxAttempts configures how many summarization calls a single ingestion
// may spend on empty replies. Negative means no bound.
func (s *Service) WithMaxAttempts(n int) *Service {
	if n != 0 {
		s.maxAttempts = n
	}
	return s
}

// Ingest catalogs a new asset: stores the raw bytes, obtains a summary from
// the external service, commits the record and mirrors it into the search
// index. A mirror failure is logged and swallowed; the record store is the
// source of truth.
func (s *Service) Ingest(ctx context.Context, data []byte, name string) (domain.Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Asset{}, fmt.Errorf("asset name is required: %w", domain.ErrInvalidInput)
	}
	if len(name) > domain.MaxNameLength {
		return domain.Asset{}, fmt.Errorf("asset name too long (max %d): %w", domain.MaxNameLength, domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return domain.Asset{}, fmt.Errorf("asset body is empty: %w", domain.ErrInvalidInput)
	}

	location, err := s.blobs.Store(ctx, data, name)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("store asset bytes: %w", err)
	}

	mediaType := mimetype.Detect(data).String()
	encoded := base64.StdEncoding.EncodeToString(data)

	summary, err := s.summarizeWithRetry(ctx, encoded, mediaType)
	if err != nil {
		return domain.Asset{}, err
	}

	asset, err := domain.NewAsset(uuid.NewString(), name, location, mediaType, summary.Text, summary.Keywords)
	if err != nil {
		return domain.Asset{}, err
	}

	if err := s.records.Insert(ctx, &asset); err != nil {
		return domain.Asset{}, fmt.Errorf("insert asset record: %w", err)
	}

	if err := s.mirror.Upsert(ctx, &asset); err != nil {
		metrics.IndexWriteFailuresTotal.WithLabelValues("upsert").Inc()
		s.logger.Warn("search index upsert failed, record remains unindexed",
			zap.String("asset_id", asset.ID()),
			zap.Error(err))
	}

	return asset, nil
}

// summarizeWithRetry drives the external summarization call until it yields
// a non-empty summary. Empty replies are retried up to maxAttempts; a
// transport failure stops the loop immediately.
func (s *Service) summarizeWithRetry(ctx context.Context, encoded, mediaType string) (domain.Summary, error) {
	for attempt := 1; ; attempt++ {
		summary, err := s.summarizer.Summarize(ctx, encoded, mediaType)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("summarize asset: %w", err)
		}
		if !summary.IsEmpty() {
			return summary, nil
		}

		s.logger.Debug("summarization returned empty result, retrying",
			zap.Int("attempt", attempt))

		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return domain.Summary{}, fmt.Errorf(
				"no usable summary after %d attempts: %w", attempt, domain.ErrSummaryExhausted)
		}
		if err := ctx.Err(); err != nil {
			return domain.Summary{}, fmt.Errorf("summarize asset: %w: %w", domain.ErrSummarizerUnavailable, err)
		}
	}
}

// Get retrieves a cataloged asset by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Asset, error) {
	asset, err := s.records.FindByID(ctx, id)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("find asset: %w", err)
	}
	return asset, nil
}

// List returns all cataloged assets, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Asset, error) {
	assets, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Delete removes an asset from the record store and, best-effort, from the
// search index. A failed index delete leaves a stale entry behind; it is
// logged and the call still succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.records.FindByID(ctx, id); err != nil {
		return fmt.Errorf("find asset: %w", err)
	}

	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete asset record: %w", err)
	}

	if err := s.mirror.Delete(ctx, id); err != nil {
		metrics.IndexWriteFailuresTotal.WithLabelValues("delete").Inc()
		s.logger.Warn("search index delete failed, stale entry remains",
			zap.String("asset_id", id),
			zap.Error(err))
	}

	return nil
}

// Reindex rebuilds the search index from scratch: the index is dropped and
// recreated, then every record-store asset is re-upserted. Per-asset
// failures are counted, not fatal. Returns (indexed, failed).
func (s *Service) Reindex(ctx context.Context) (int, int, error) {
	assets, err := s.records.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list assets: %w", err)
	}

	if err := s.mirror.Reset(ctx); err != nil {
		return 0, 0, fmt.Errorf("reset index: %w", err)
	}

	indexed, failed := 0, 0
	for i := range assets {
		if err := s.mirror.Upsert(ctx, &assets[i]); err != nil {
			metrics.IndexWriteFailuresTotal.WithLabelValues("upsert").Inc()
			s.logger.Warn("reindex upsert failed",
				zap.String("asset_id", assets[i].ID()),
				zap.Error(err))
			failed++
			continue
		}
		indexed++
	}

	s.logger.Info("reindex complete", zap.Int("indexed", indexed), zap.Int("failed", failed))
	return indexed, failed, nil
}
