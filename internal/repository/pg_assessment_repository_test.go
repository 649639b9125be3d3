package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Helper to create a valid assessment for testing.
func newTestAssessment() *domain.RiskAssessment {
	return &domain.RiskAssessment{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		Severity:   domain.RiskSeverityHigh,
		Likelihood: "likely",
		Score:      78,
		Rationale:  "Recent incidents in the same area within the past month.",
		Model:      "gpt-4o-mini",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestPgAssessmentRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates assessment successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()

		mock.ExpectExec("INSERT INTO risk_assessments").
			WithArgs(
				assessment.ID, assessment.EventID, assessment.Severity, assessment.Likelihood,
				assessment.Score, assessment.Rationale, assessment.Model, assessment.CreatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Create(ctx, assessment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for nil assessment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		err = repo.Create(ctx, nil)

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "assessment", validationErr.Field)
	})

	t.Run("returns validation error for missing event ID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()
		assessment.EventID = uuid.Nil

		err = repo.Create(ctx, assessment)

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "event_id", validationErr.Field)
	})

	t.Run("returns validation error for out of range score", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()
		assessment.Score = 150

		err = repo.Create(ctx, assessment)

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "score", validationErr.Field)
	})

	t.Run("returns already exists error on duplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()

		pgErr := &pgconn.PgError{Code: "23505"}
		mock.ExpectExec("INSERT INTO risk_assessments").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(pgErr)

		err = repo.Create(ctx, assessment)

		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when event does not exist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()

		// Simulate foreign key violation on event_id
		pgErr := &pgconn.PgError{Code: "23503"}
		mock.ExpectExec("INSERT INTO risk_assessments").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(pgErr)

		err = repo.Create(ctx, assessment)

		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgAssessmentRepository_GetByEventID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns assessment when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		assessment := newTestAssessment()

		rows := pgxmock.NewRows([]string{
			"id", "event_id", "severity", "likelihood", "score", "rationale", "model", "created_at",
		}).AddRow(
			assessment.ID, assessment.EventID, assessment.Severity, assessment.Likelihood,
			assessment.Score, assessment.Rationale, assessment.Model, assessment.CreatedAt,
		)

		mock.ExpectQuery("SELECT .* FROM risk_assessments WHERE event_id = \\$1").
			WithArgs(assessment.EventID).
			WillReturnRows(rows)

		got, err := repo.GetByEventID(ctx, assessment.EventID)
		require.NoError(t, err)
		assert.Equal(t, assessment.ID, got.ID)
		assert.Equal(t, assessment.Severity, got.Severity)
		assert.Equal(t, assessment.Score, got.Score)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing assessment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgAssessmentRepository(mock)
		eventID := uuid.New()

		rows := pgxmock.NewRows([]string{
			"id", "event_id", "severity", "likelihood", "score", "rationale", "model", "created_at",
		})

		mock.ExpectQuery("SELECT .* FROM risk_assessments WHERE event_id = \\$1").
			WithArgs(eventID).
			WillReturnRows(rows)

		got, err := repo.GetByEventID(ctx, eventID)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
