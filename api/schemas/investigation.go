package schemas

import (
	"encoding/json"
	"time"
)

// -- Investigation Schemas --

// InvestigationStatus is the lifecycle state of a case file. Transitions are
// validated by the case manager against an allowed-transition table; the
// values are lowercase to align with database ENUMs.
type InvestigationStatus string

const (
	StatusActive    InvestigationStatus = "active"
	StatusPaused    InvestigationStatus = "paused"
	StatusCompleted InvestigationStatus = "completed"
	StatusArchived  InvestigationStatus = "archived"
)

// KnownStatus reports whether s is one of the recognized lifecycle states.
func KnownStatus(s InvestigationStatus) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Priority ranks how urgently a case should be worked. It has no effect on
// status transitions.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Finding is a timestamped, typed piece of evidence attached to an
// investigation. Findings are append-only: once added they are never edited
// or removed.
type Finding struct {
	Type       string          `json:"type"`
	Confidence float64         `json:"confidence"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Investigation is a long-lived case file grouping target entities and
// findings under a status lifecycle.
type Investigation struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	ComplianceNotes string              `json:"compliance_notes"`
	Tags            []string            `json:"tags"`
	Status          InvestigationStatus `json:"status"`
	Priority        Priority            `json:"priority"`

	// TargetEntities is an ordered sequence of identifier strings with set
	// semantics: insertion order is preserved and duplicates are not appended.
	TargetEntities []string `json:"target_entities"`

	// Findings is monotonically non-decreasing in length for the lifetime of
	// the investigation.
	Findings []Finding `json:"findings"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// -- Timeline Schemas --

// TimelineEventKind distinguishes the events a case timeline is derived from.
type TimelineEventKind string

const (
	EventCreated      TimelineEventKind = "created"
	EventFindingAdded TimelineEventKind = "finding_added"
)

// TimelineEvent is one entry of a derived case timeline. Timelines are pure
// derivations of CreatedAt plus the findings sequence and are never stored.
type TimelineEvent struct {
	Kind      TimelineEventKind `json:"kind"`
	Label     string            `json:"label"`
	Timestamp time.Time         `json:"timestamp"`
}

// CaseStats summarizes the investigation collection for dashboard surfaces.
type CaseStats struct {
	Active       int `json:"active"`
	Paused       int `json:"paused"`
	Completed    int `json:"completed"`
	Archived     int `json:"archived"`
	HighPriority int `json:"high_priority"` // priority high or critical
}
