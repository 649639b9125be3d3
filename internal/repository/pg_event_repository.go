package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// PostgreSQL error codes used for constraint violation detection.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
)

// eventColumns is the canonical column list for scanning events.
const eventColumns = `id, partition, status, title, location_text, location_country,
		event_time, category, summary, source, created_at, updated_at`

// Compile-time interface verification.
var _ EventRepository = (*PgEventRepository)(nil)

// PgEventRepository is a PostgreSQL implementation of EventRepository.
type PgEventRepository struct {
	db DBTX
}

// NewPgEventRepository creates a new PostgreSQL event repository.
func NewPgEventRepository(db DBTX) *PgEventRepository {
	return &PgEventRepository{db: db}
}

// Create inserts a new event into its partition.
func (r *PgEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return domain.NewValidationError("event", "event cannot be nil")
	}
	if event.ID == uuid.Nil {
		return domain.NewValidationError("id", "event ID is required")
	}
	if !event.Partition.IsValid() {
		return domain.NewValidationError("partition", "unknown partition: "+string(event.Partition))
	}
	if strings.TrimSpace(event.Title) == "" {
		return domain.NewValidationError("title", "event title is required")
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	}

	query := `
		INSERT INTO events (
			id, partition, status, title, location_text, location_country,
			event_time, category, summary, source, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.Partition, event.Status, event.Title,
		event.Location.Text, event.Location.Country,
		event.DateTime, event.Category, event.Summary, event.Source,
		event.CreatedAt, event.UpdatedAt,
	)

	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("event", event.ID.String())
		}
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event by its ID.
func (r *PgEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("event", id.String())
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

// List retrieves events matching the filter criteria.
func (r *PgEventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	where, args := buildEventFilterClauses(filter)

	countQuery := "SELECT COUNT(*) FROM events" + where
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT "+eventColumns+" FROM events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan events: %w", err)
	}

	return events, total, nil
}

// ListRecent retrieves the most recently created events in a partition.
func (r *PgEventRepository) ListRecent(ctx context.Context, partition domain.Partition, limit int) ([]domain.Event, error) {
	if !partition.IsValid() {
		return nil, domain.ErrInvalidPartition
	}
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if limit > maxFilterLimit {
		limit = maxFilterLimit
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE partition = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, partition, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan events: %w", err)
	}

	return events, nil
}

// UpdatePartition moves an event to a new partition with a new status.
func (r *PgEventRepository) UpdatePartition(ctx context.Context, id uuid.UUID, partition domain.Partition, status domain.EventStatus) error {
	if !partition.IsValid() {
		return domain.ErrInvalidPartition
	}

	query := `
		UPDATE events
		SET partition = $2, status = $3, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, partition, status)
	if err != nil {
		return fmt.Errorf("failed to update event partition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("event", id.String())
	}

	return nil
}

// Delete removes an event.
func (r *PgEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("event", id.String())
	}

	return nil
}

// buildEventFilterClauses builds the WHERE clause and arguments for an EventFilter.
func buildEventFilterClauses(filter EventFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Partition != "" {
		args = append(args, filter.Partition)
		clauses = append(clauses, fmt.Sprintf("partition = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.CreatedAfter != nil {
		args = append(args, *filter.CreatedAfter)
		clauses = append(clauses, fmt.Sprintf("created_at > $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanEvent scans a single event from a pgx.Row.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Partition, &e.Status, &e.Title,
		&e.Location.Text, &e.Location.Country,
		&e.DateTime, &e.Category, &e.Summary, &e.Source,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// scanEvents scans all events from a pgx.Rows result set.
func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		err := rows.Scan(
			&e.ID, &e.Partition, &e.Status, &e.Title,
			&e.Location.Text, &e.Location.Country,
			&e.DateTime, &e.Category, &e.Summary, &e.Source,
			&e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// isPgUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// isPgForeignKeyViolation reports whether err is a PostgreSQL foreign key violation.
func isPgForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}
