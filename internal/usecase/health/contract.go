package health

import "context"

// Pinger checks a store's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SummarizerChecker checks summarization provider availability.
type SummarizerChecker interface {
	HealthCheck(ctx context.Context) error
}
