package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxNameLength is the maximum length of a caller-supplied asset name.
const MaxNameLength = 256

// Asset is the cataloged-image aggregate. The primary store is the system of
// record for it; the search index holds a derived projection keyed by the
// same ID.
type Asset struct {
	id        string
	name      string
	location  string
	mediaType string
	summary   string
	keywords  []string
	createdAt int64 // unix millis
}

// NewAsset validates and creates an Asset at the end of ingestion, once the
// summary has been obtained. ID and summary must be non-empty; keywords may
// be empty.
func NewAsset(id, name, location, mediaType, summary string, keywords []string) (Asset, error) {
	name = strings.TrimSpace(name)
	if id == "" {
		return Asset{}, fmt.Errorf("asset ID is required: %w", ErrInvalidInput)
	}
	if name == "" {
		return Asset{}, fmt.Errorf("asset name is required: %w", ErrInvalidInput)
	}
	if len(name) > MaxNameLength {
		return Asset{}, fmt.Errorf("asset name too long (max %d): %w", MaxNameLength, ErrInvalidInput)
	}
	if location == "" {
		return Asset{}, fmt.Errorf("asset location is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(summary) == "" {
		return Asset{}, fmt.Errorf("asset summary is required: %w", ErrInvalidInput)
	}

	return Asset{
		id:        id,
		name:      name,
		location:  location,
		mediaType: mediaType,
		summary:   summary,
		keywords:  cloneKeywords(keywords),
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates an Asset without validation (storage hydration).
func Reconstruct(id, name, location, mediaType, summary string, keywords []string, createdAt int64) Asset {
	return Asset{
		id: id, name: name, location: location, mediaType: mediaType,
		summary: summary, keywords: keywords, createdAt: createdAt,
	}
}

// ID returns the process-assigned asset identifier.
func (a *Asset) ID() string { return a.id }

// Name returns the caller-supplied display name.
func (a *Asset) Name() string { return a.name }

// Location returns the blob-store reference to the raw bytes.
func (a *Asset) Location() string { return a.location }

// MediaType returns the sniffed media type of the raw bytes.
func (a *Asset) MediaType() string { return a.mediaType }

// Summary returns the description produced by the summarization service.
func (a *Asset) Summary() string { return a.summary }

// Keywords returns the keywords produced alongside the summary.
func (a *Asset) Keywords() []string { return a.keywords }

// CreatedAt returns the creation time in unix millis.
func (a *Asset) CreatedAt() int64 { return a.createdAt }

func cloneKeywords(kw []string) []string {
	if len(kw) == 0 {
		return nil
	}
	out := make([]string, len(kw))
	copy(out, kw)
	return out
}
