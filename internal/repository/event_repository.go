package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// EventRepository handles event persistence across the workflow partitions.
// It provides methods for creating, retrieving, listing, and promoting events
// through the staging, queue, and verified stages.
type EventRepository interface {
	// Create inserts a new event into its partition.
	// The event must have a valid ID, partition, and title.
	// Returns domain.ErrAlreadyExists if an event with the same ID already exists.
	// Returns domain.ErrInvalidInput if required fields are missing.
	Create(ctx context.Context, event *domain.Event) error

	// GetByID retrieves an event by its ID.
	// Returns domain.ErrNotFound if no matching event exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)

	// List retrieves events matching the filter criteria.
	// Returns the matching events and total count for pagination.
	// The total count reflects all matching records regardless of limit/offset.
	List(ctx context.Context, filter EventFilter) ([]domain.Event, int64, error)

	// ListRecent retrieves the most recently created events in a partition,
	// newest first, capped at limit. Used as the candidate source for
	// duplicate checks.
	// Returns domain.ErrInvalidPartition for an unknown partition.
	ListRecent(ctx context.Context, partition domain.Partition, limit int) ([]domain.Event, error)

	// UpdatePartition moves an event to a new partition with a new status.
	// Used to promote events from staging to queue and queue to verified.
	// Returns domain.ErrNotFound if no matching event exists.
	UpdatePartition(ctx context.Context, id uuid.UUID, partition domain.Partition, status domain.EventStatus) error

	// Delete removes an event.
	// Returns domain.ErrNotFound if no matching event exists.
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventFilter specifies criteria for listing events.
type EventFilter struct {
	// Partition filters by workflow partition (optional).
	Partition domain.Partition

	// Status filters by one or more event statuses (optional).
	// When multiple statuses are provided, events matching any status are returned.
	Status []domain.EventStatus

	// CreatedAfter filters to events created after this timestamp (optional).
	CreatedAfter *time.Time

	// CreatedBefore filters to events created before this timestamp (optional).
	CreatedBefore *time.Time

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks if the filter has valid values and sets defaults.
// An unknown non-empty partition yields a validation error that unwraps to
// domain.ErrInvalidInput.
func (f *EventFilter) Validate() error {
	if f.Partition != "" && !f.Partition.IsValid() {
		return domain.NewValidationError("partition", "unknown partition: "+string(f.Partition))
	}

	applyPaginationDefaults(&f.Limit, &f.Offset)

	return nil
}
