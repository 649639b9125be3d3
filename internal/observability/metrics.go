package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the event hub service.
// Metrics are organized by subsystem: ingest, duplicate checks, events, and
// AI risk assessment. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// EventsIngested counts events accepted into staging, labeled by source.
	EventsIngested *prometheus.CounterVec

	// EventsGated counts inbound events rejected by the ingest duplicate gate.
	EventsGated prometheus.Counter

	// EventsApproved counts events promoted from staging to the queue.
	EventsApproved prometheus.Counter

	// EventsAssessed counts events promoted from the queue to verified.
	EventsAssessed prometheus.Counter

	// IngestFailures counts inbound messages that could not be processed.
	IngestFailures *prometheus.CounterVec

	// DuplicateChecksStarted counts duplicate checks initiated.
	DuplicateChecksStarted prometheus.Counter

	// DuplicateChecksCompleted counts duplicate checks that finished.
	DuplicateChecksCompleted prometheus.Counter

	// DuplicatesFound counts candidate duplicates surfaced across all checks.
	DuplicatesFound prometheus.Counter

	// DuplicateCheckDuration observes duplicate check duration in seconds.
	DuplicateCheckDuration prometheus.Histogram

	// PartitionFetchFailures counts failed candidate fetches, labeled by partition.
	PartitionFetchFailures *prometheus.CounterVec

	// AIRequestsTotal counts risk assessment API requests, labeled by model.
	AIRequestsTotal *prometheus.CounterVec

	// AIRequestsFailed counts failed risk assessment API requests, labeled by model and error type.
	AIRequestsFailed *prometheus.CounterVec

	// AIRequestDuration observes risk assessment request duration in seconds, labeled by model.
	AIRequestDuration *prometheus.HistogramVec

	// AITokensUsed counts tokens consumed by risk assessment, labeled by model and token type.
	AITokensUsed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Ingest
		EventsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of events accepted into staging by source",
		}, []string{"source"}),
		EventsGated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_gated_total",
			Help:      "Total number of inbound events rejected as duplicates",
		}),
		EventsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_approved_total",
			Help:      "Total number of events approved into the queue",
		}),
		EventsAssessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_assessed_total",
			Help:      "Total number of events assessed and verified",
		}),
		IngestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Total number of inbound messages that failed processing",
		}, []string{"reason"}),

		// Duplicate checks
		DuplicateChecksStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_checks_started_total",
			Help:      "Total number of duplicate checks started",
		}),
		DuplicateChecksCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_checks_completed_total",
			Help:      "Total number of duplicate checks completed",
		}),
		DuplicatesFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_found_total",
			Help:      "Total number of candidate duplicates surfaced",
		}),
		DuplicateCheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_check_duration_seconds",
			Help:      "Duration of duplicate checks in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		PartitionFetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_fetch_failures_total",
			Help:      "Total number of failed candidate fetches by partition",
		}, []string{"partition"}),

		// AI
		AIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Total number of risk assessment requests by model",
		}, []string{"model"}),
		AIRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_failed_total",
			Help:      "Total number of failed risk assessment requests by model",
		}, []string{"model", "error_type"}),
		AIRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of risk assessment requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),
		AITokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_used_total",
			Help:      "Total number of tokens used by risk assessment",
		}, []string{"model", "token_type"}),
	}
}

// RecordEventIngested records an event accepted into staging.
func (m *Metrics) RecordEventIngested(source string) {
	m.EventsIngested.WithLabelValues(source).Inc()
}

// RecordEventGated records an inbound event rejected as a duplicate.
func (m *Metrics) RecordEventGated() {
	m.EventsGated.Inc()
}

// RecordEventApproved records an event promoted to the queue.
func (m *Metrics) RecordEventApproved() {
	m.EventsApproved.Inc()
}

// RecordEventAssessed records an event promoted to verified.
func (m *Metrics) RecordEventAssessed() {
	m.EventsAssessed.Inc()
}

// RecordIngestFailure records an inbound message that failed processing.
func (m *Metrics) RecordIngestFailure(reason string) {
	m.IngestFailures.WithLabelValues(reason).Inc()
}

// RecordDuplicateCheckStarted records that a duplicate check has started.
func (m *Metrics) RecordDuplicateCheckStarted() {
	m.DuplicateChecksStarted.Inc()
}

// RecordDuplicateCheck records a completed duplicate check.
func (m *Metrics) RecordDuplicateCheck(duplicates int, durationSeconds float64) {
	m.DuplicateChecksCompleted.Inc()
	m.DuplicatesFound.Add(float64(duplicates))
	m.DuplicateCheckDuration.Observe(durationSeconds)
}

// RecordPartitionFetchFailure records a failed candidate fetch for a partition.
func (m *Metrics) RecordPartitionFetchFailure(partition string) {
	m.PartitionFetchFailures.WithLabelValues(partition).Inc()
}

// RecordAIRequest records a risk assessment request.
func (m *Metrics) RecordAIRequest(model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.AIRequestsTotal.WithLabelValues(model).Inc()
	m.AIRequestDuration.WithLabelValues(model).Observe(durationSeconds)
	m.AITokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.AITokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// RecordAIRequestFailed records a failed risk assessment request.
func (m *Metrics) RecordAIRequestFailed(model, errorType string) {
	m.AIRequestsFailed.WithLabelValues(model, errorType).Inc()
}
