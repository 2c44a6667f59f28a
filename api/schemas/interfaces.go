package schemas

import (
	"context"
)

// -- Inference Service Contract --

// RawClassification is the wire shape of the inference service's analysis
// response before validation. Every field is optional: pointers and nil-able
// slices distinguish "absent" from zero values so the sanitizer can coerce
// per policy instead of trusting the duck-typed JSON as-is.
type RawClassification struct {
	DetectedType        *string  `json:"detected_type"`
	Confidence          *float64 `json:"confidence"`
	RiskLevel           *string  `json:"risk_level"`
	SuggestedSearches   []string `json:"suggested_searches"`
	PotentialPlatforms  []string `json:"potential_platforms"`
	CorrelationPatterns []string `json:"correlation_patterns"`
	ComplianceNotes     *string  `json:"compliance_notes"`
}

// RawReport is the wire shape of the inference service's report response.
// Missing fields render as empty sections and never block export.
type RawReport struct {
	ExecutiveSummary    string `json:"executive_summary"`
	EntityProfile       string `json:"entity_profile"`
	DigitalFootprint    string `json:"digital_footprint"`
	RiskAssessment      string `json:"risk_assessment"`
	CorrelationAnalysis string `json:"correlation_analysis"`
	Recommendations     string `json:"recommendations"`
	ComplianceNotes     string `json:"compliance_notes"`
}

// ReportRequest carries the context the inference service needs to write
// report prose for one analyzed entity.
type ReportRequest struct {
	Identifier      string               `json:"identifier"`
	Type            EntityType           `json:"type"`
	Analysis        ClassificationResult `json:"analysis"`
	RelatedEntities int                  `json:"related_entities"`
}

// InferenceClient abstracts the external inference service. Both calls are
// the only suspending operations in the system; they honor context
// cancellation and may take multiple seconds.
type InferenceClient interface {
	// Classify asks the service to analyze a single identifier. Transport or
	// service failure surfaces as ErrClassifierUnavailable; the client never
	// retries on its own.
	Classify(ctx context.Context, identifier string) (RawClassification, error)
	// GenerateReport asks the service for report prose.
	GenerateReport(ctx context.Context, req ReportRequest) (RawReport, error)
	// Close releases any resources held by the client.
	Close() error
}

// -- Persistence Contract --

// ProfileRepository is the storage collaborator for entity profiles.
// Single-record operations are atomic; no multi-record transactions are
// required of an implementation.
type ProfileRepository interface {
	// List returns profiles ordered by sortKey ("created_at" or "identifier",
	// "-" prefix for descending). limit <= 0 means no limit.
	List(ctx context.Context, sortKey string, limit int) ([]EntityProfile, error)
	// GetByIdentifier fetches the profile for a normalized identifier, or
	// ErrNotFound.
	GetByIdentifier(ctx context.Context, identifier string) (EntityProfile, error)
	// Create inserts a new profile and returns it as stored.
	Create(ctx context.Context, profile EntityProfile) (EntityProfile, error)
	// Update atomically replaces the profile with the given id, or ErrNotFound.
	Update(ctx context.Context, id string, profile EntityProfile) (EntityProfile, error)
}

// InvestigationRepository is the storage collaborator for case files.
type InvestigationRepository interface {
	List(ctx context.Context, sortKey string, limit int) ([]Investigation, error)
	Get(ctx context.Context, id string) (Investigation, error)
	Create(ctx context.Context, inv Investigation) (Investigation, error)
	Update(ctx context.Context, id string, inv Investigation) (Investigation, error)
}
