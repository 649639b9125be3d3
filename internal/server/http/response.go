package httpserver

import (
	"time"

	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Event response types for JSON serialization.

type eventResponse struct {
	ID         string     `json:"id"`
	Partition  string     `json:"partition"`
	Status     string     `json:"status"`
	Title      string     `json:"title"`
	Location   string     `json:"location,omitempty"`
	Country    string     `json:"country,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	Category   string     `json:"category,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Source     string     `json:"source,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type duplicateMatchResponse struct {
	EventID   string   `json:"event_id"`
	Partition string   `json:"partition"`
	Title     string   `json:"title"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
}

type checkDuplicatesResponse struct {
	Duplicates []duplicateMatchResponse `json:"duplicates"`
	// Warning carries a non-fatal advisory when parts of the store could not
	// be searched. Duplicate warnings never block submission.
	Warning string `json:"warning,omitempty"`
}

type createEventResponse struct {
	Event eventResponse `json:"event"`
	// Duplicates lists advisory matches found at submission time.
	Duplicates []duplicateMatchResponse `json:"duplicates,omitempty"`
	Warning    string                   `json:"warning,omitempty"`
}

type listEventsResponse struct {
	Events     []eventResponse `json:"events"`
	TotalCount int             `json:"total_count"`
}

type assessmentResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Severity   string    `json:"severity"`
	Likelihood string    `json:"likelihood,omitempty"`
	Score      int       `json:"score"`
	Rationale  string    `json:"rationale,omitempty"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

type approveEventResponse struct {
	EventID   string `json:"event_id"`
	Partition string `json:"partition"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func domainEventToResponse(e *domain.Event) eventResponse {
	return eventResponse{
		ID:         e.ID.String(),
		Partition:  string(e.Partition),
		Status:     string(e.Status),
		Title:      e.Title,
		Location:   e.Location.Text,
		Country:    e.Location.Country,
		OccurredAt: e.DateTime,
		Category:   e.Category,
		Summary:    e.Summary,
		Source:     e.Source,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func matchesToResponse(matches []dedup.Match) []duplicateMatchResponse {
	out := make([]duplicateMatchResponse, len(matches))
	for i, m := range matches {
		out[i] = duplicateMatchResponse{
			EventID:   m.ID,
			Partition: string(m.Record.Partition),
			Title:     m.Record.Title,
			Score:     m.Score,
			Reasons:   m.Reasons,
		}
	}
	return out
}

func domainAssessmentToResponse(a *domain.RiskAssessment) assessmentResponse {
	return assessmentResponse{
		ID:         a.ID.String(),
		EventID:    a.EventID.String(),
		Severity:   string(a.Severity),
		Likelihood: a.Likelihood,
		Score:      a.Score,
		Rationale:  a.Rationale,
		Model:      a.Model,
		CreatedAt:  a.CreatedAt,
	}
}
