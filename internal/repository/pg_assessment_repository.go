package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Compile-time interface verification.
var _ AssessmentRepository = (*PgAssessmentRepository)(nil)

// PgAssessmentRepository is a PostgreSQL implementation of AssessmentRepository.
type PgAssessmentRepository struct {
	db DBTX
}

// NewPgAssessmentRepository creates a new PostgreSQL assessment repository.
func NewPgAssessmentRepository(db DBTX) *PgAssessmentRepository {
	return &PgAssessmentRepository{db: db}
}

// Create inserts a new risk assessment for an event.
func (r *PgAssessmentRepository) Create(ctx context.Context, assessment *domain.RiskAssessment) error {
	if assessment == nil {
		return domain.NewValidationError("assessment", "assessment cannot be nil")
	}
	if assessment.ID == uuid.Nil {
		return domain.NewValidationError("id", "assessment ID is required")
	}
	if assessment.EventID == uuid.Nil {
		return domain.NewValidationError("event_id", "event ID is required")
	}
	if assessment.Score < 0 || assessment.Score > 100 {
		return domain.NewValidationError("score", "score must be between 0 and 100")
	}

	query := `
		INSERT INTO risk_assessments (
			id, event_id, severity, likelihood, score, rationale, model, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.Exec(ctx, query,
		assessment.ID, assessment.EventID, assessment.Severity, assessment.Likelihood,
		assessment.Score, assessment.Rationale, assessment.Model, assessment.CreatedAt,
	)

	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("assessment", assessment.EventID.String())
		}
		if isPgForeignKeyViolation(err) {
			return domain.NewNotFoundError("event", assessment.EventID.String())
		}
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetByEventID retrieves the risk assessment for an event.
func (r *PgAssessmentRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.RiskAssessment, error) {
	query := `
		SELECT id, event_id, severity, likelihood, score, rationale, model, created_at
		FROM risk_assessments
		WHERE event_id = $1`

	var a domain.RiskAssessment
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&a.ID, &a.EventID, &a.Severity, &a.Likelihood,
		&a.Score, &a.Rationale, &a.Model, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("assessment", eventID.String())
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return &a, nil
}
