// Package ai provides model-based risk assessment for verified events.
//
// This package defines the abstractions and prompt engineering required to
// assess the risk level of incident events using large language models.
// Assessments produce a severity band, a likelihood estimate, a 0-100 risk
// score, and a short rationale, which are persisted alongside the event.
//
// Example usage:
//
//	analyzer := ai.NewOpenAIAnalyzer(cfg, metrics, logger)
//	assessment, err := analyzer.Assess(ctx, event)
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcticMV/frf-event-hub-sub000/internal/domain"
)

// Analyzer defines the interface for model-based event risk assessment.
//
// Implementations should handle provider-specific API calls, response parsing,
// and error handling while conforming to this unified interface.
type Analyzer interface {
	// Assess produces a risk assessment for the given event.
	// The context should be used for cancellation and deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Parse the model response as JSON
	//   - Return wrapped errors with provider context
	Assess(ctx context.Context, event *domain.Event) (*domain.RiskAssessment, error)

	// Model returns the model identifier being used (e.g., "gpt-4o-mini").
	Model() string
}

// assessmentResponse is the expected JSON structure from model responses.
type assessmentResponse struct {
	Severity   string `json:"severity"`
	Likelihood string `json:"likelihood"`
	Score      int    `json:"score"`
	Rationale  string `json:"rationale"`
}

// BuildAssessmentPrompt builds the system and user prompts for risk assessment.
// The system prompt instructs the model on its role and response format. The
// user prompt carries the event fields to analyze.
func BuildAssessmentPrompt(event *domain.Event) (systemPrompt, userPrompt string) {
	return buildSystemPrompt(), buildUserPrompt(event)
}

// buildSystemPrompt constructs the system-level instructions for the model.
func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a geopolitical and security risk analyst. Your task is to ")
	sb.WriteString("assess incident reports and assign a structured risk rating that ")
	sb.WriteString("downstream monitoring systems can act on.\n\n")

	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"severity": "low|moderate|high|critical", "likelihood": "rare|possible|likely|recurring", "score": 0, "rationale": "One or two sentence justification"}`)
	sb.WriteString("\n\n")

	sb.WriteString("Guidelines for assessment:\n")
	sb.WriteString("1. severity reflects potential impact on people, infrastructure, and operations in the affected area.\n")
	sb.WriteString("2. likelihood reflects how probable a recurrence or escalation of this incident type is in the same location.\n")
	sb.WriteString("3. score is an integer from 0 to 100 combining severity and likelihood, where 0 is negligible and 100 is extreme.\n")
	sb.WriteString("4. rationale must cite concrete details from the report, not generic statements.\n")
	sb.WriteString("5. If the report lacks enough detail for a confident rating, assign a conservative moderate band and say so in the rationale.\n")

	return sb.String()
}

// buildUserPrompt constructs the user-level prompt containing the event fields.
func buildUserPrompt(event *domain.Event) string {
	var sb strings.Builder

	sb.WriteString("Assess the risk of the following incident report.\n\n")

	sb.WriteString(fmt.Sprintf("Title: %s\n", event.Title))
	if event.Location.Text != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n", event.Location.Text))
	}
	if event.Location.Country != "" {
		sb.WriteString(fmt.Sprintf("Country: %s\n", event.Location.Country))
	}
	if event.DateTime != nil {
		sb.WriteString(fmt.Sprintf("Date: %s\n", event.DateTime.UTC().Format("2006-01-02")))
	}
	if event.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", event.Category))
	}
	if event.Summary != "" {
		sb.WriteString("\nReport:\n---\n")
		sb.WriteString(event.Summary)
		sb.WriteString("\n---")
	}

	return sb.String()
}

// parseAssessmentResponse parses the model's JSON output into a RiskAssessment
// for the given event. Models occasionally wrap the JSON payload in prose or
// markdown fences, so parsing falls back to extracting the first balanced JSON
// object from the content.
func parseAssessmentResponse(event *domain.Event, model, content string) (*domain.RiskAssessment, error) {
	payload := extractJSONObject(content)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var parsed assessmentResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON response: %w", err)
	}

	severity := domain.RiskSeverity(strings.ToLower(strings.TrimSpace(parsed.Severity)))
	if !severity.IsValid() {
		return nil, fmt.Errorf("model returned unknown severity %q", parsed.Severity)
	}
	if parsed.Score < 0 || parsed.Score > 100 {
		return nil, fmt.Errorf("model returned score %d outside 0-100", parsed.Score)
	}

	return &domain.RiskAssessment{
		EventID:    event.ID,
		Severity:   severity,
		Likelihood: strings.ToLower(strings.TrimSpace(parsed.Likelihood)),
		Score:      parsed.Score,
		Rationale:  strings.TrimSpace(parsed.Rationale),
		Model:      model,
	}, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s,
// or "" when none exists. Brace matching ignores braces inside JSON strings.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
