package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arcticMV/frf-event-hub-sub000/internal/ai"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// AssessorConfig holds configuration for the assessment loop.
type AssessorConfig struct {
	// Interval is how often the assessor polls for approved events.
	// Defaults to 15s when zero.
	Interval time.Duration
	// BatchSize is the number of approved events assessed per poll.
	// Defaults to 10 when zero.
	BatchSize int
}

// Assessor polls the queue partition for approved events, runs each through
// the risk analyzer, stores the assessment, and promotes the event to the
// verified partition. Failures on individual events are logged and the event
// is left in the queue for the next cycle.
type Assessor struct {
	events      repository.EventRepository
	assessments repository.AssessmentRepository
	analyzer    ai.Analyzer
	cfg         AssessorConfig
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewAssessor creates a new assessment loop. metrics may be nil.
func NewAssessor(
	events repository.EventRepository,
	assessments repository.AssessmentRepository,
	analyzer ai.Analyzer,
	cfg AssessorConfig,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Assessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	return &Assessor{
		events:      events,
		assessments: assessments,
		analyzer:    analyzer,
		cfg:         cfg,
		metrics:     metrics,
		logger:      logger.With().Str("component", "assessor").Logger(),
	}
}

// Run starts the polling loop. Blocks until context is cancelled.
func (a *Assessor) Run(ctx context.Context) error {
	a.logger.Info().
		Dur("interval", a.cfg.Interval).
		Int("batch_size", a.cfg.BatchSize).
		Msg("starting assessor")

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("assessor stopped via context cancellation")
			return ctx.Err()
		case <-ticker.C:
			a.runOnce(ctx)
		}
	}
}

// runOnce assesses one batch of approved events from the queue partition.
func (a *Assessor) runOnce(ctx context.Context) {
	filter := repository.EventFilter{
		Partition: domain.PartitionQueue,
		Status:    []domain.EventStatus{domain.EventStatusApproved},
		Limit:     a.cfg.BatchSize,
	}

	events, _, err := a.events.List(ctx, filter)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list approved events")
		return
	}
	if len(events) == 0 {
		return
	}

	a.logger.Debug().Int("count", len(events)).Msg("assessing approved events")

	for i := range events {
		if ctx.Err() != nil {
			return
		}
		if err := a.assessOne(ctx, &events[i]); err != nil {
			a.logger.Error().Err(err).
				Str("event_id", events[i].ID.String()).
				Msg("failed to assess event, leaving in queue")
			// Continue with other events - don't fail the whole batch.
		}
	}
}

// assessOne runs the analyzer on a single event and promotes it to verified.
func (a *Assessor) assessOne(ctx context.Context, event *domain.Event) error {
	assessment, err := a.analyzer.Assess(ctx, event)
	if err != nil {
		return err
	}
	assessment.ID = uuid.New()
	assessment.CreatedAt = time.Now().UTC()

	if err := a.assessments.Create(ctx, assessment); err != nil {
		// An existing assessment means a previous cycle assessed the event
		// but failed to promote it; fall through to the promotion.
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		a.logger.Warn().
			Str("event_id", event.ID.String()).
			Msg("assessment already stored, retrying promotion")
	}

	if err := a.events.UpdatePartition(ctx, event.ID, domain.PartitionVerified, domain.EventStatusAssessed); err != nil {
		return err
	}

	if a.metrics != nil {
		a.metrics.RecordEventAssessed()
	}
	a.logger.Info().
		Str("event_id", event.ID.String()).
		Str("severity", string(assessment.Severity)).
		Int("score", assessment.Score).
		Str("model", assessment.Model).
		Msg("event assessed and promoted to verified")

	return nil
}
