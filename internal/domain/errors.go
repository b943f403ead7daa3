package domain

import "errors"

var (
	// ErrNotFound signals a missing asset.
	ErrNotFound = errors.New("asset not found")
	// ErrInvalidInput signals bad caller input, rejected before any external call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBlobStore signals that raw-bytes persistence failed.
	ErrBlobStore = errors.New("blob store failure")
	// ErrSummarizerUnavailable signals that the summarization call itself failed.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
	// ErrSummaryExhausted signals that the retry budget ran out without a non-empty summary.
	ErrSummaryExhausted = errors.New("summary retries exhausted")
	// ErrSearchUnavailable signals that the search index could not serve a query.
	ErrSearchUnavailable = errors.New("search unavailable")
)
