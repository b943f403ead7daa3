package domain

import (
	"context"
	"strings"
)

// Summary is the result of one summarization call. An empty Text with a nil
// error means the service answered but produced nothing usable; the caller's
// retry policy decides what to do with that.
type Summary struct {
	Text     string
	Keywords []string
}

// IsEmpty reports whether the summary text is empty after trimming.
func (s Summary) IsEmpty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// Summarizer is the shared contract for the external summarization service.
// Implementations return an error only for transport-level failures; a reply
// that parses to nothing is an empty Summary, not an error.
type Summarizer interface {
	Summarize(ctx context.Context, encoded, mediaType string) (Summary, error)
}
