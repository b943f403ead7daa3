package metrics

import "github.com/prometheus/client_golang/prometheus"

// Summarization Prometheus metrics.
var (
	SummarizeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagedex",
			Name:      "summarize_requests_total",
			Help:      "Total number of summarization requests",
		},
		[]string{"model", "status"},
	)

	SummarizeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imagedex",
			Name:      "summarize_request_duration_seconds",
			Help:      "Summarization request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	SummarizeEmptyRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagedex",
			Name:      "summarize_empty_replies_total",
			Help:      "Replies that parsed to no usable summary and were retried",
		},
		[]string{"model"},
	)

	IndexWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagedex",
			Name:      "index_write_failures_total",
			Help:      "Best-effort search index writes that failed and were swallowed",
		},
		[]string{"op"}, // "upsert" / "delete"
	)
)

var summarizerMetricsRegistered bool

// RegisterSummarizerMetrics registers summarization metrics. Must be called once from main.
func RegisterSummarizerMetrics() {
	if summarizerMetricsRegistered {
		return
	}
	prometheus.MustRegister(SummarizeRequestsTotal)
	prometheus.MustRegister(SummarizeRequestDuration)
	prometheus.MustRegister(SummarizeEmptyRepliesTotal)
	prometheus.MustRegister(IndexWriteFailuresTotal)
	summarizerMetricsRegistered = true
}
