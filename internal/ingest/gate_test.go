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

	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// fakeEventRepo is an in-memory EventRepository for pipeline tests. Errors
// can be injected per partition and per method.
type fakeEventRepo struct {
	mu      sync.Mutex
	events  map[uuid.UUID]*domain.Event
	listErr map[domain.Partition]error

	createErr  error
	listAllErr error
	updateErr  error
}

var _ repository.EventRepository = (*fakeEventRepo)(nil)

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:  make(map[uuid.UUID]*domain.Event),
		listErr: make(map[domain.Partition]error),
	}
}

func (f *fakeEventRepo) add(event domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := event
	f.events[e.ID] = &e
}

func (f *fakeEventRepo) get(id uuid.UUID) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		copied := *e
		return &copied
	}
	return nil
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.events[event.ID]; ok {
		return domain.NewAlreadyExistsError("event", event.ID.String())
	}
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if e := f.get(id); e != nil {
		return e, nil
	}
	return nil, domain.NewNotFoundError("event", id.String())
}

func (f *fakeEventRepo) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listAllErr != nil {
		return nil, 0, f.listAllErr
	}

	var out []domain.Event
	for _, e := range f.events {
		if filter.Partition != "" && e.Partition != filter.Partition {
			continue
		}
		if len(filter.Status) > 0 {
			matched := false
			for _, s := range filter.Status {
				if e.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *e)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, int64(len(out)), nil
}

func (f *fakeEventRepo) ListRecent(ctx context.Context, partition domain.Partition, limit int) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[partition]; err != nil {
		return nil, err
	}

	var out []domain.Event
	for _, e := range f.events {
		if e.Partition == partition {
			out = append(out, *e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEventRepo) UpdatePartition(ctx context.Context, id uuid.UUID, partition domain.Partition, status domain.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	e, ok := f.events[id]
	if !ok {
		return domain.NewNotFoundError("event", id.String())
	}
	e.Partition = partition
	e.Status = status
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.NewNotFoundError("event", id.String())
	}
	delete(f.events, id)
	return nil
}

// strictOptions mirrors the ingest gate preset: only likely duplicates are
// rejected.
func strictOptions() dedup.Options {
	opts := dedup.DefaultOptions()
	opts.MinimumScore = 60
	return opts
}

func newTestGate(repo *fakeEventRepo) *Gate {
	return NewGate(repo, GateConfig{Options: strictOptions(), Enabled: true}, nil, zerolog.Nop())
}

func validSubmission() InboundSubmission {
	dt := time.Date(2025, 5, 12, 14, 0, 0, 0, time.UTC)
	return InboundSubmission{
		Title:      "Explosion near central station",
		Location:   "Kyiv",
		Country:    "Ukraine",
		OccurredAt: &dt,
		Category:   "security",
		Summary:    "A large explosion was reported near the central railway station.",
		Source:     "partner-feed",
	}
}

func TestGate_Admit(t *testing.T) {
	t.Run("stores novel submission in staging", func(t *testing.T) {
		repo := newFakeEventRepo()
		gate := newTestGate(repo)

		result, err := gate.Admit(context.Background(), validSubmission())
		require.NoError(t, err)
		require.False(t, result.Gated())
		require.NotNil(t, result.Event)

		stored := repo.get(result.Event.ID)
		require.NotNil(t, stored)
		assert.Equal(t, domain.PartitionStaging, stored.Partition)
		assert.Equal(t, domain.EventStatusPending, stored.Status)
		assert.Equal(t, "Explosion near central station", stored.Title)
		assert.Equal(t, "Kyiv", stored.Location.Text)
		assert.Equal(t, "Ukraine", stored.Location.Country)
		assert.Equal(t, "security", stored.Category)
		assert.Equal(t, "partner-feed", stored.Source)
	})

	t.Run("trims whitespace from fields", func(t *testing.T) {
		repo := newFakeEventRepo()
		gate := newTestGate(repo)

		sub := validSubmission()
		sub.Title = "  Explosion near central station  "
		sub.Country = " Ukraine "

		result, err := gate.Admit(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, "Explosion near central station", result.Event.Title)
		assert.Equal(t, "Ukraine", result.Event.Location.Country)
	})

	t.Run("gates likely duplicate", func(t *testing.T) {
		repo := newFakeEventRepo()
		existing := domain.Event{
			ID:        uuid.New(),
			Partition: domain.PartitionVerified,
			Status:    domain.EventStatusAssessed,
			Title:     "Explosion near central station",
			Location:  domain.Location{Text: "Kyiv", Country: "Ukraine"},
			Category:  "security",
		}
		dt := time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC)
		existing.DateTime = &dt
		repo.add(existing)

		gate := newTestGate(repo)

		result, err := gate.Admit(context.Background(), validSubmission())
		require.NoError(t, err)
		require.True(t, result.Gated())
		require.NotEmpty(t, result.Duplicates)
		assert.Equal(t, existing.ID, result.Duplicates[0].Record.ID)
		assert.GreaterOrEqual(t, result.Duplicates[0].Score, 60)

		// Nothing new was stored.
		assert.Equal(t, 1, len(repo.events))
	})

	t.Run("weak match below strict threshold is admitted", func(t *testing.T) {
		repo := newFakeEventRepo()
		repo.add(domain.Event{
			ID:        uuid.New(),
			Partition: domain.PartitionStaging,
			Status:    domain.EventStatusPending,
			Title:     "Explosion near central station",
			Location:  domain.Location{Text: "Warsaw", Country: "Poland"},
			Category:  "infrastructure",
		})

		gate := newTestGate(repo)

		result, err := gate.Admit(context.Background(), validSubmission())
		require.NoError(t, err)
		assert.False(t, result.Gated())
	})

	t.Run("tolerates single partition failure", func(t *testing.T) {
		repo := newFakeEventRepo()
		repo.listErr[domain.PartitionVerified] = errors.New("connection refused")

		gate := newTestGate(repo)

		result, err := gate.Admit(context.Background(), validSubmission())
		require.NoError(t, err)
		assert.False(t, result.Gated())
	})

	t.Run("fails when every partition is unavailable", func(t *testing.T) {
		repo := newFakeEventRepo()
		for _, p := range domain.DefaultPartitions {
			repo.listErr[p] = errors.New("connection refused")
		}

		gate := newTestGate(repo)

		_, err := gate.Admit(context.Background(), validSubmission())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate gate unavailable")
	})

	t.Run("disabled gate admits without consulting the store", func(t *testing.T) {
		repo := newFakeEventRepo()
		for _, p := range domain.DefaultPartitions {
			repo.listErr[p] = errors.New("connection refused")
		}

		gate := NewGate(repo, GateConfig{Options: strictOptions()}, nil, zerolog.Nop())

		result, err := gate.Admit(context.Background(), validSubmission())
		require.NoError(t, err)
		require.False(t, result.Gated())
		assert.NotNil(t, repo.get(result.Event.ID))
	})

	t.Run("rejects blank title", func(t *testing.T) {
		repo := newFakeEventRepo()
		gate := newTestGate(repo)

		sub := validSubmission()
		sub.Title = "   "

		_, err := gate.Admit(context.Background(), sub)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		repo := newFakeEventRepo()
		repo.createErr = errors.New("insert failed")

		gate := newTestGate(repo)

		_, err := gate.Admit(context.Background(), validSubmission())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store admitted event")
	})
}
