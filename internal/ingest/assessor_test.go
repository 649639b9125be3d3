package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticMV/frf-event-hub-sub000/internal/ai"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// fakeAssessmentRepo is an in-memory AssessmentRepository keyed by event ID.
type fakeAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[uuid.UUID]*domain.RiskAssessment
	createErr   error
}

var _ repository.AssessmentRepository = (*fakeAssessmentRepo)(nil)

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{assessments: make(map[uuid.UUID]*domain.RiskAssessment)}
}

func (f *fakeAssessmentRepo) Create(ctx context.Context, assessment *domain.RiskAssessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.assessments[assessment.EventID]; ok {
		return domain.NewAlreadyExistsError("assessment", assessment.EventID.String())
	}
	copied := *assessment
	f.assessments[assessment.EventID] = &copied
	return nil
}

func (f *fakeAssessmentRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.RiskAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assessments[eventID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.NewNotFoundError("assessment", eventID.String())
}

// fakeAnalyzer returns a canned assessment or error.
type fakeAnalyzer struct {
	err   error
	calls int
}

var _ ai.Analyzer = (*fakeAnalyzer)(nil)

func (f *fakeAnalyzer) Assess(ctx context.Context, event *domain.Event) (*domain.RiskAssessment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RiskAssessment{
		EventID:    event.ID,
		Severity:   domain.RiskSeverityHigh,
		Likelihood: "likely",
		Score:      78,
		Rationale:  "canned",
		Model:      "fake-model",
	}, nil
}

func (f *fakeAnalyzer) Model() string { return "fake-model" }

func approvedEvent() domain.Event {
	return domain.Event{
		ID:        uuid.New(),
		Partition: domain.PartitionQueue,
		Status:    domain.EventStatusApproved,
		Title:     "Explosion near central station",
		Location:  domain.Location{Text: "Kyiv", Country: "Ukraine"},
		Category:  "security",
	}
}

func newTestAssessor(events *fakeEventRepo, assessments *fakeAssessmentRepo, analyzer ai.Analyzer) *Assessor {
	cfg := AssessorConfig{Interval: 10 * time.Millisecond, BatchSize: 10}
	return NewAssessor(events, assessments, analyzer, cfg, nil, zerolog.Nop())
}

func TestAssessor_RunOnce(t *testing.T) {
	t.Run("assesses and promotes approved events", func(t *testing.T) {
		events := newFakeEventRepo()
		event := approvedEvent()
		events.add(event)

		assessments := newFakeAssessmentRepo()
		analyzer := &fakeAnalyzer{}
		assessor := newTestAssessor(events, assessments, analyzer)

		assessor.runOnce(context.Background())

		stored, err := assessments.GetByEventID(context.Background(), event.ID)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, stored.ID)
		assert.False(t, stored.CreatedAt.IsZero())
		assert.Equal(t, domain.RiskSeverityHigh, stored.Severity)
		assert.Equal(t, "fake-model", stored.Model)

		promoted := events.get(event.ID)
		assert.Equal(t, domain.PartitionVerified, promoted.Partition)
		assert.Equal(t, domain.EventStatusAssessed, promoted.Status)
	})

	t.Run("ignores pending events in staging", func(t *testing.T) {
		events := newFakeEventRepo()
		events.add(domain.Event{
			ID:        uuid.New(),
			Partition: domain.PartitionStaging,
			Status:    domain.EventStatusPending,
			Title:     "Unreviewed report",
		})

		analyzer := &fakeAnalyzer{}
		assessor := newTestAssessor(events, newFakeAssessmentRepo(), analyzer)

		assessor.runOnce(context.Background())

		assert.Equal(t, 0, analyzer.calls)
	})

	t.Run("analyzer failure leaves event in queue", func(t *testing.T) {
		events := newFakeEventRepo()
		event := approvedEvent()
		events.add(event)

		analyzer := &fakeAnalyzer{err: errors.New("model unavailable")}
		assessor := newTestAssessor(events, newFakeAssessmentRepo(), analyzer)

		assessor.runOnce(context.Background())

		unchanged := events.get(event.ID)
		assert.Equal(t, domain.PartitionQueue, unchanged.Partition)
		assert.Equal(t, domain.EventStatusApproved, unchanged.Status)
	})

	t.Run("retries promotion when assessment already exists", func(t *testing.T) {
		events := newFakeEventRepo()
		event := approvedEvent()
		events.add(event)

		assessments := newFakeAssessmentRepo()
		require.NoError(t, assessments.Create(context.Background(), &domain.RiskAssessment{
			ID:       uuid.New(),
			EventID:  event.ID,
			Severity: domain.RiskSeverityLow,
			Score:    10,
		}))

		assessor := newTestAssessor(events, assessments, &fakeAnalyzer{})

		assessor.runOnce(context.Background())

		promoted := events.get(event.ID)
		assert.Equal(t, domain.PartitionVerified, promoted.Partition)
		assert.Equal(t, domain.EventStatusAssessed, promoted.Status)
	})

	t.Run("list failure skips the cycle", func(t *testing.T) {
		events := newFakeEventRepo()
		events.listAllErr = errors.New("connection refused")

		analyzer := &fakeAnalyzer{}
		assessor := newTestAssessor(events, newFakeAssessmentRepo(), analyzer)

		assessor.runOnce(context.Background())

		assert.Equal(t, 0, analyzer.calls)
	})

	t.Run("batch continues past individual failures", func(t *testing.T) {
		events := newFakeEventRepo()
		first := approvedEvent()
		second := approvedEvent()
		events.add(first)
		events.add(second)

		assessments := newFakeAssessmentRepo()
		analyzer := &fakeAnalyzer{}
		assessor := newTestAssessor(events, assessments, analyzer)

		assessor.runOnce(context.Background())

		assert.Equal(t, 2, analyzer.calls)
	})
}

func TestAssessor_Run_StopsOnCancel(t *testing.T) {
	events := newFakeEventRepo()
	assessor := newTestAssessor(events, newFakeAssessmentRepo(), &fakeAnalyzer{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- assessor.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("assessor did not stop after context cancellation")
	}
}
