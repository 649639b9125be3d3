// Package ingest provides the asynchronous intake pipeline for the Event Hub:
// a Kafka listener that gates inbound submissions against existing events
// before storing them, and an assessor loop that runs approved events through
// the risk analyzer.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/observability"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// InboundSubmission is the wire format of an event submission consumed from
// the intake topic.
type InboundSubmission struct {
	Title    string     `json:"title"`
	Location string     `json:"location,omitempty"`
	Country  string     `json:"country,omitempty"`
	// OccurredAt is when the event happened (RFC 3339). Absence is allowed.
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	Category   string     `json:"category,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	// Source identifies the submitting system.
	Source string `json:"source,omitempty"`
}

// GateConfig holds the configuration for the ingest gate.
type GateConfig struct {
	// Options are the scoring parameters for the duplicate search. The gate
	// is expected to run with the stricter minimum score preset so that only
	// likely duplicates are rejected.
	Options dedup.Options

	// Partitions is the list of store partitions searched for duplicates.
	// Defaults to the three pipeline stages when empty.
	Partitions []domain.Partition

	// FetchLimit is the per-partition candidate record cap. Defaults to 100
	// when zero.
	FetchLimit int

	// Enabled turns the duplicate check on. A disabled gate admits every
	// valid submission without touching the candidate partitions.
	Enabled bool
}

// GateResult is the outcome of admitting one submission.
type GateResult struct {
	// Event is the stored event, nil when the submission was gated out.
	Event *domain.Event
	// Duplicates holds the matches that caused the submission to be gated,
	// empty when the event was admitted.
	Duplicates []dedup.Match
}

// Gated reports whether the submission was rejected as a duplicate.
func (r GateResult) Gated() bool {
	return r.Event == nil
}

// Gate admits inbound submissions into the staging partition after checking
// them against recent events in every configured partition. Submissions whose
// best match clears the configured minimum score are dropped; everything else
// is stored with pending status.
type Gate struct {
	events  repository.EventRepository
	cfg     GateConfig
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewGate creates an ingest gate over the given event repository.
// metrics may be nil.
func NewGate(events repository.EventRepository, cfg GateConfig, metrics *observability.Metrics, logger zerolog.Logger) *Gate {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 100
	}
	if len(cfg.Partitions) == 0 {
		cfg.Partitions = domain.DefaultPartitions
	}
	if cfg.Options == (dedup.Options{}) {
		cfg.Options = dedup.DefaultOptions()
	}

	return &Gate{
		events:  events,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "ingest_gate").Logger(),
	}
}

// Admit checks one submission against the store and persists it when no
// likely duplicate exists. A single partition fetch failure is tolerated and
// that partition's candidates are omitted; only a total inability to query
// the store fails the admission.
func (g *Gate) Admit(ctx context.Context, sub InboundSubmission) (GateResult, error) {
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		return GateResult{}, domain.NewValidationError("title", "title is required")
	}

	draft := domain.EventDraft{
		Title: title,
		Location: domain.Location{
			Text:    strings.TrimSpace(sub.Location),
			Country: strings.TrimSpace(sub.Country),
		},
		DateTime: sub.OccurredAt,
		Category: strings.TrimSpace(sub.Category),
	}

	if g.cfg.Enabled {
		candidates, err := g.fetchCandidates(ctx)
		if err != nil {
			return GateResult{}, err
		}

		if matches := dedup.FindSimilar(draft, candidates, g.cfg.Options); len(matches) > 0 {
			if g.metrics != nil {
				g.metrics.RecordEventGated()
			}
			g.logger.Info().
				Str("title", title).
				Str("source", sub.Source).
				Int("match_count", len(matches)).
				Int("top_score", matches[0].Score).
				Str("matched_event_id", matches[0].Record.ID.String()).
				Msg("submission gated as likely duplicate")
			return GateResult{Duplicates: matches}, nil
		}
	}

	event := &domain.Event{
		ID:        uuid.New(),
		Partition: domain.PartitionStaging,
		Status:    domain.EventStatusPending,
		Title:     title,
		Location:  draft.Location,
		DateTime:  sub.OccurredAt,
		Category:  draft.Category,
		Summary:   strings.TrimSpace(sub.Summary),
		Source:    strings.TrimSpace(sub.Source),
	}

	if err := g.events.Create(ctx, event); err != nil {
		return GateResult{}, fmt.Errorf("store admitted event: %w", err)
	}

	if g.metrics != nil {
		g.metrics.RecordEventIngested(event.Source)
	}
	g.logger.Info().
		Str("event_id", event.ID.String()).
		Str("title", title).
		Str("source", event.Source).
		Msg("submission admitted to staging")

	return GateResult{Event: event}, nil
}

// fetchCandidates gathers recent events from every configured partition,
// omitting partitions that fail to respond.
func (g *Gate) fetchCandidates(ctx context.Context) ([]domain.Event, error) {
	var (
		candidates []domain.Event
		failed     int
		lastErr    error
	)

	for _, partition := range g.cfg.Partitions {
		records, err := g.events.ListRecent(ctx, partition, g.cfg.FetchLimit)
		if err != nil {
			failed++
			lastErr = err
			if g.metrics != nil {
				g.metrics.RecordPartitionFetchFailure(string(partition))
			}
			g.logger.Warn().
				Err(err).
				Str("partition", string(partition)).
				Msg("partition fetch failed, omitting its candidates")
			continue
		}
		candidates = append(candidates, records...)
	}

	if failed == len(g.cfg.Partitions) && failed > 0 {
		return nil, fmt.Errorf("duplicate gate unavailable: %w", lastErr)
	}

	return candidates, nil
}
