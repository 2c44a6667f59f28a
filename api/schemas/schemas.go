package schemas

import (
	"time"
)

// -- Entity Schemas --

// EntityType classifies the kind of identifier an entity profile represents.
// The values are lowercase to align with database ENUMs and the inference
// service's detected_type vocabulary.
type EntityType string

const (
	EntityEmail    EntityType = "email"
	EntityUsername EntityType = "username"
	EntityDomain   EntityType = "domain"
	EntityIP       EntityType = "ip"
	EntityPhone    EntityType = "phone"
	// EntityPotential marks a correlation candidate suggested by the inference
	// service that has not itself been investigated yet.
	EntityPotential EntityType = "potential"
	EntityUnknown   EntityType = "unknown"
)

// KnownEntityType reports whether t is one of the recognized entity types.
func KnownEntityType(t EntityType) bool {
	switch t {
	case EntityEmail, EntityUsername, EntityDomain, EntityIP, EntityPhone, EntityPotential, EntityUnknown:
		return true
	}
	return false
}

// RiskLevel is the inference service's coarse risk judgment for an identifier.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RelatedEntityRef is a correlation edge from a profile to another identifier,
// carrying the confidence of the suggested relationship and the source that
// proposed it (e.g. "ai_correlation").
type RelatedEntityRef struct {
	Identifier string     `json:"identifier"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
	Source     string     `json:"source"`
}

// SocialProfile is a suspected platform presence for an entity. Profiles are
// deduplicated by (platform, username), case-insensitive on the username.
type SocialProfile struct {
	Platform   string  `json:"platform"`
	ProfileURL string  `json:"profile_url"`
	Username   string  `json:"username"`
	Confidence float64 `json:"confidence"`
}

// EntityProfile is the persistent record for one investigated identifier.
// The Identifier field is the normalized form and is unique per logical
// entity: re-searching the same normalized identifier merges into the
// existing profile rather than creating a duplicate.
type EntityProfile struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	Type       EntityType `json:"type"`

	// RelatedEntities is an ordered set deduplicated case-insensitively by
	// identifier; on duplicates the reference with the higher confidence wins
	// and ties keep the earliest entry.
	RelatedEntities []RelatedEntityRef `json:"related_entities"`

	// SocialProfiles is a set deduplicated by (platform, username).
	SocialProfiles []SocialProfile `json:"social_profiles"`

	CreatedAt time.Time `json:"created_at"`
}

// -- Classification Schemas --

// ClassificationResult is the validated, coerced form of the inference
// service's analysis of a single identifier. Slices are never nil once a
// result has passed sanitization; confidence is always within [0,1].
type ClassificationResult struct {
	DetectedType        EntityType `json:"detected_type"`
	Confidence          float64    `json:"confidence"`
	RiskLevel           RiskLevel  `json:"risk_level"`
	SuggestedSearches   []string   `json:"suggested_searches"`
	PotentialPlatforms  []string   `json:"potential_platforms"`
	CorrelationPatterns []string   `json:"correlation_patterns"`
	ComplianceNotes     string     `json:"compliance_notes"`
}
