// Package domain provides domain models and business logic for the Event Hub service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Partition identifies the pipeline stage an event is stored in.
// These values must match the CHECK constraint on events.partition.
type Partition string

const (
	// PartitionStaging holds newly ingested events awaiting human review.
	PartitionStaging Partition = "staging"
	// PartitionQueue holds approved events queued for risk analysis.
	PartitionQueue Partition = "queue"
	// PartitionVerified holds events that completed risk analysis.
	PartitionVerified Partition = "verified"
)

// DefaultPartitions is the default partition list searched during duplicate checks.
var DefaultPartitions = []Partition{PartitionStaging, PartitionQueue, PartitionVerified}

// IsValid reports whether the partition is one of the known pipeline stages.
func (p Partition) IsValid() bool {
	switch p {
	case PartitionStaging, PartitionQueue, PartitionVerified:
		return true
	default:
		return false
	}
}

// EventStatus represents the review state of an event within its partition.
// These values must match the CHECK constraint on events.status.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusApproved  EventStatus = "approved"
	EventStatusAssessed  EventStatus = "assessed"
	EventStatusDuplicate EventStatus = "duplicate"
	EventStatusRejected  EventStatus = "rejected"
)

// Location is the free-text place description attached to an event.
type Location struct {
	// Text is the human-entered location description (e.g. "Kyiv central station").
	Text string
	// Country is the country name as entered by the reporter.
	Country string
}

// Event is a stored event record in one of the pipeline partitions.
// The duplicate-detection engine treats it as immutable for the duration
// of a scoring call.
type Event struct {
	ID        uuid.UUID
	Partition Partition
	Status    EventStatus
	Title     string
	Location  Location
	// DateTime is when the event occurred. Nil when the reporter did not
	// supply a date; absence is never an error.
	DateTime  *time.Time
	Category  string
	Summary   string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventDraft is the event currently being authored in the admin console.
// It is created transiently by the caller on every edit and never persisted
// by the duplicate-detection core.
type EventDraft struct {
	Title    string
	Location Location
	DateTime *time.Time
	Category string
}

// RiskSeverity is the qualitative severity band assigned by the analyzer.
type RiskSeverity string

const (
	RiskSeverityLow      RiskSeverity = "low"
	RiskSeverityModerate RiskSeverity = "moderate"
	RiskSeverityHigh     RiskSeverity = "high"
	RiskSeverityCritical RiskSeverity = "critical"
)

// IsValid reports whether s is one of the known severity bands.
func (s RiskSeverity) IsValid() bool {
	switch s {
	case RiskSeverityLow, RiskSeverityModerate, RiskSeverityHigh, RiskSeverityCritical:
		return true
	}
	return false
}

// RiskAssessment is the AI-produced analysis of an approved event.
type RiskAssessment struct {
	ID       uuid.UUID
	EventID  uuid.UUID
	Severity RiskSeverity
	// Likelihood is the analyzer's qualitative recurrence estimate.
	Likelihood string
	// Score is the analyzer's 0-100 risk score.
	Score     int
	Rationale string
	// Model records which model produced the assessment.
	Model     string
	CreatedAt time.Time
}
