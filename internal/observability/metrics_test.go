package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	// Use unique namespace to avoid conflicts with other tests
	m := NewMetrics("test_eventhub_new")

	assert.NotNil(t, m.EventsIngested)
	assert.NotNil(t, m.EventsGated)
	assert.NotNil(t, m.EventsApproved)
	assert.NotNil(t, m.EventsAssessed)
	assert.NotNil(t, m.IngestFailures)
	assert.NotNil(t, m.DuplicateChecksStarted)
	assert.NotNil(t, m.DuplicateChecksCompleted)
	assert.NotNil(t, m.DuplicatesFound)
	assert.NotNil(t, m.DuplicateCheckDuration)
	assert.NotNil(t, m.PartitionFetchFailures)
	assert.NotNil(t, m.AIRequestsTotal)
	assert.NotNil(t, m.AIRequestsFailed)
	assert.NotNil(t, m.AIRequestDuration)
	assert.NotNil(t, m.AITokensUsed)
}

func TestRecordEventIngested(t *testing.T) {
	m := NewMetrics("test_event_ingested")

	m.RecordEventIngested("kafka")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsIngested.WithLabelValues("kafka")))
}

func TestRecordEventGated(t *testing.T) {
	m := NewMetrics("test_event_gated")

	initial := testutil.ToFloat64(m.EventsGated)
	m.RecordEventGated()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.EventsGated))
}

func TestRecordEventApproved(t *testing.T) {
	m := NewMetrics("test_event_approved")

	initial := testutil.ToFloat64(m.EventsApproved)
	m.RecordEventApproved()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.EventsApproved))
}

func TestRecordEventAssessed(t *testing.T) {
	m := NewMetrics("test_event_assessed")

	initial := testutil.ToFloat64(m.EventsAssessed)
	m.RecordEventAssessed()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.EventsAssessed))
}

func TestRecordIngestFailure(t *testing.T) {
	m := NewMetrics("test_ingest_failure")

	m.RecordIngestFailure("decode")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IngestFailures.WithLabelValues("decode")))
}

func TestRecordDuplicateCheckStarted(t *testing.T) {
	m := NewMetrics("test_dup_check_started")

	initial := testutil.ToFloat64(m.DuplicateChecksStarted)
	m.RecordDuplicateCheckStarted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.DuplicateChecksStarted))
}

func TestRecordDuplicateCheck(t *testing.T) {
	m := NewMetrics("test_dup_check")

	initial := testutil.ToFloat64(m.DuplicatesFound)
	m.RecordDuplicateCheck(3, 0.05)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DuplicateChecksCompleted))
	assert.Equal(t, initial+3, testutil.ToFloat64(m.DuplicatesFound))

	// Check histogram
	histCount, err := getHistogramSampleCount(m.DuplicateCheckDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordPartitionFetchFailure(t *testing.T) {
	m := NewMetrics("test_partition_fetch_failure")

	m.RecordPartitionFetchFailure("staging")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PartitionFetchFailures.WithLabelValues("staging")))
}

func TestRecordAIRequest(t *testing.T) {
	m := NewMetrics("test_ai_request")

	m.RecordAIRequest("gpt-4o-mini", 2.5, 100, 50)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("gpt-4o-mini")))
	assert.Equal(t, float64(100), testutil.ToFloat64(m.AITokensUsed.WithLabelValues("gpt-4o-mini", "input")))
	assert.Equal(t, float64(50), testutil.ToFloat64(m.AITokensUsed.WithLabelValues("gpt-4o-mini", "output")))
}

func TestRecordAIRequestFailed(t *testing.T) {
	m := NewMetrics("test_ai_request_failed")

	m.RecordAIRequestFailed("gpt-4o-mini", "rate_limit")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AIRequestsFailed.WithLabelValues("gpt-4o-mini", "rate_limit")))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
