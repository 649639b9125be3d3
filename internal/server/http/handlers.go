package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/arcticMV/frf-event-hub-sub000/internal/dedup"
	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
	"github.com/arcticMV/frf-event-hub-sub000/internal/repository"
)

// Validation constants.
const (
	defaultListLimit   = 50
	maxListLimit       = 500
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// eventDraftRequest is the JSON request body shared by the duplicate check
// and event creation endpoints.
type eventDraftRequest struct {
	Title      string  `json:"title" validate:"required,min=3,max=500"`
	Location   string  `json:"location,omitempty" validate:"max=500"`
	Country    string  `json:"country,omitempty" validate:"max=100"`
	OccurredAt *string `json:"occurred_at,omitempty"`
	Category   string  `json:"category,omitempty" validate:"max=100"`
	Summary    string  `json:"summary,omitempty" validate:"max=10000"`
	Source     string  `json:"source,omitempty" validate:"max=100"`
}

// checkDuplicates handles POST /api/v1/events/check-duplicates.
// It is the synchronous form-path check: the admin console calls it with the
// current draft and renders the ranked matches as advisory warnings.
func (s *Server) checkDuplicates(w http.ResponseWriter, r *http.Request) {
	_, draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	if !s.dedupCfg.Enabled {
		writeJSON(w, http.StatusOK, checkDuplicatesResponse{
			Duplicates: matchesToResponse(nil),
		})
		return
	}

	if s.metrics != nil {
		s.metrics.RecordDuplicateCheckStarted()
	}
	start := time.Now()

	candidates, warning, err := s.fetchCandidates(r)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "duplicate check unavailable")
		return
	}

	matches := dedup.FindSimilar(draft, candidates, s.dedupCfg.Options)

	if s.metrics != nil {
		s.metrics.RecordDuplicateCheck(len(matches), time.Since(start).Seconds())
	}

	writeJSON(w, http.StatusOK, checkDuplicatesResponse{
		Duplicates: matchesToResponse(matches),
		Warning:    warning,
	})
}

// createEvent handles POST /api/v1/events.
// It stores the draft into the staging partition. Duplicate matches found at
// submission time are returned as advisory warnings and never block the
// submission.
func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	req, draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}

	event := &domain.Event{
		ID:        uuid.New(),
		Partition: domain.PartitionStaging,
		Status:    domain.EventStatusPending,
		Title:     draft.Title,
		Location:  draft.Location,
		DateTime:  draft.DateTime,
		Category:  draft.Category,
		Summary:   strings.TrimSpace(req.Summary),
		Source:    strings.TrimSpace(req.Source),
	}
	if event.Source == "" {
		event.Source = "api"
	}

	if err := s.events.Create(r.Context(), event); err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEventIngested(event.Source)
	}
	s.logger.Info().
		Str("event_id", event.ID.String()).
		Str("source", event.Source).
		Msg("event created in staging")

	// Advisory duplicate check; a store failure here only suppresses the
	// warnings, never the creation.
	var matches []dedup.Match
	var warning string
	if s.dedupCfg.Enabled {
		candidates, partialWarning, err := s.fetchCandidates(r)
		if err != nil {
			warning = "duplicate check unavailable"
		} else {
			warning = partialWarning
			matches = dedup.FindSimilar(draft, withoutEvent(candidates, event.ID), s.dedupCfg.Options)
		}
	}

	writeJSON(w, http.StatusCreated, createEventResponse{
		Event:      domainEventToResponse(event),
		Duplicates: matchesToResponse(matches),
		Warning:    warning,
	})
}

// listEvents handles GET /api/v1/events.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	filter := repository.EventFilter{
		Partition: domain.Partition(r.URL.Query().Get("partition")),
		Limit:     parseLimit(r),
	}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		filter.Status = []domain.EventStatus{domain.EventStatus(statusParam)}
	}

	events, totalCount, err := s.events.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i := range events {
		out[i] = domainEventToResponse(&events[i])
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Events:     out,
		TotalCount: int(totalCount),
	})
}

// getEvent handles GET /api/v1/events/{eventID}.
func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseUUID(w, chi.URLParam(r, "eventID"), "event_id")
	if !ok {
		return
	}

	event, err := s.events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainEventToResponse(event))
}

// approveEvent handles POST /api/v1/events/{eventID}/approve.
// It promotes a staged event into the queue partition for risk analysis.
func (s *Server) approveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseUUID(w, chi.URLParam(r, "eventID"), "event_id")
	if !ok {
		return
	}

	event, err := s.events.GetByID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if event.Partition != domain.PartitionStaging {
		writeError(w, http.StatusConflict, fmt.Sprintf("event is in %s, only staged events can be approved", event.Partition))
		return
	}

	if err := s.events.UpdatePartition(r.Context(), eventID, domain.PartitionQueue, domain.EventStatusApproved); err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordEventApproved()
	}
	s.logger.Info().Str("event_id", eventID.String()).Msg("event approved for risk analysis")

	writeJSON(w, http.StatusOK, approveEventResponse{
		EventID:   eventID.String(),
		Partition: string(domain.PartitionQueue),
		Status:    string(domain.EventStatusApproved),
		Message:   "event approved for risk analysis",
	})
}

// getAssessment handles GET /api/v1/events/{eventID}/assessment.
func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseUUID(w, chi.URLParam(r, "eventID"), "event_id")
	if !ok {
		return
	}

	assessment, err := s.assessments.GetByEventID(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainAssessmentToResponse(assessment))
}

// decodeDraft reads, validates, and converts a draft request body. On failure
// it writes the error response and returns ok=false.
func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (eventDraftRequest, domain.EventDraft, bool) {
	var req eventDraftRequest

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return req, domain.EventDraft{}, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return req, domain.EventDraft{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return req, domain.EventDraft{}, false
	}

	draft := domain.EventDraft{
		Title: req.Title,
		Location: domain.Location{
			Text:    strings.TrimSpace(req.Location),
			Country: strings.TrimSpace(req.Country),
		},
		Category: strings.TrimSpace(req.Category),
	}

	if req.OccurredAt != nil && *req.OccurredAt != "" {
		t, parseErr := time.Parse(time.RFC3339, *req.OccurredAt)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid occurred_at format: expected RFC3339")
			return req, domain.EventDraft{}, false
		}
		draft.DateTime = &t
	}

	return req, draft, true
}

// fetchCandidates gathers recent events from every configured partition.
// Partitions that fail to respond are omitted and reported via the returned
// warning; only a total inability to query returns an error.
func (s *Server) fetchCandidates(r *http.Request) ([]domain.Event, string, error) {
	var (
		candidates []domain.Event
		failed     int
		lastErr    error
	)

	for _, partition := range s.dedupCfg.Partitions {
		records, err := s.events.ListRecent(r.Context(), partition, s.dedupCfg.FetchLimit)
		if err != nil {
			failed++
			lastErr = err
			if s.metrics != nil {
				s.metrics.RecordPartitionFetchFailure(string(partition))
			}
			s.logger.Warn().
				Err(err).
				Str("partition", string(partition)).
				Msg("partition fetch failed, omitting its candidates")
			continue
		}
		candidates = append(candidates, records...)
	}

	if failed == len(s.dedupCfg.Partitions) && failed > 0 {
		return nil, "", lastErr
	}

	var warning string
	if failed > 0 {
		warning = fmt.Sprintf("%d of %d partitions could not be searched", failed, len(s.dedupCfg.Partitions))
	}
	return candidates, warning, nil
}

// withoutEvent filters the just-created event out of its own candidate set.
func withoutEvent(candidates []domain.Event, id uuid.UUID) []domain.Event {
	out := candidates[:0]
	for _, c := range candidates {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// validationMessage renders the first field failure of a validator error in a
// client-friendly form.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s is invalid", field)
	}
	return "invalid request"
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to
// clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrInvalidPartition):
		writeError(w, http.StatusBadRequest, "unknown partition")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parseLimit extracts the limit query parameter with default and max bounds.
func parseLimit(r *http.Request) int {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}
