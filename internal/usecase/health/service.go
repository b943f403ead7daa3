package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the record store, the search
// index and the summarization provider.
type Service struct {
	records    Pinger
	index      Pinger
	summarizer SummarizerChecker
}

// New creates a Service. summarizer can be nil.
func New(records, index Pinger, summarizer SummarizerChecker) *Service {
	return &Service{records: records, index: index, summarizer: summarizer}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.records.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if err := s.index.Ping(ctx); err != nil {
		checks["search_index"] = CheckError
	} else {
		checks["search_index"] = CheckOK
	}

	if s.summarizer != nil {
		if err := s.summarizer.HealthCheck(ctx); err != nil {
			checks["summarizer"] = CheckError
		} else {
			checks["summarizer"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
