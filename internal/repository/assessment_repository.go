package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// AssessmentRepository handles AI risk assessment persistence.
type AssessmentRepository interface {
	// Create inserts a new risk assessment for an event.
	// The assessment must have a valid ID and event ID.
	// Returns domain.ErrAlreadyExists if an assessment for the event already exists.
	// Returns domain.ErrInvalidInput if required fields are missing.
	Create(ctx context.Context, assessment *domain.RiskAssessment) error

	// GetByEventID retrieves the risk assessment for an event.
	// Returns domain.ErrNotFound if the event has no assessment.
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.RiskAssessment, error)
}
