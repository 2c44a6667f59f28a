// Package classifier wraps the external inference service: a JSON-mode HTTP
// client plus the validation and coercion layer that turns the service's
// schema-loose responses into strictly typed results.
package classifier

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// Adapter validates and sanitizes inference responses. It is the contract
// boundary between the schema-loose external service and the typed core.
type Adapter struct {
	client schemas.InferenceClient
	log    *zap.Logger
}

// NewAdapter wires an adapter around an inference client.
func NewAdapter(client schemas.InferenceClient, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		client: client,
		log:    logger.Named("classifier.adapter"),
	}
}

// Classify runs one classification call and coerces the response into a
// validated ClassificationResult. Availability failures pass through
// untouched; recoverable schema violations are repaired by Sanitize.
func (a *Adapter) Classify(ctx context.Context, identifier string) (schemas.ClassificationResult, error) {
	raw, err := a.client.Classify(ctx, identifier)
	if err != nil {
		return schemas.ClassificationResult{}, err
	}

	result, coerced := Sanitize(raw)
	if len(coerced) > 0 {
		a.log.Warn("Recovered malformed classification response",
			zap.String("identifier", identifier),
			zap.Strings("coerced_fields", coerced))
	}
	return result, nil
}

// Sanitize coerces a raw classification into a validated result. It never
// fails: absent arrays become empty slices, an absent confidence clamps to 0,
// out-of-range confidences clamp into [0,1], and an absent or unrecognized
// detected type becomes EntityUnknown. The returned list names every field
// that needed repair.
func Sanitize(raw schemas.RawClassification) (schemas.ClassificationResult, []string) {
	var coerced []string
	result := schemas.ClassificationResult{
		DetectedType:        schemas.EntityUnknown,
		SuggestedSearches:   []string{},
		PotentialPlatforms:  []string{},
		CorrelationPatterns: []string{},
	}

	if raw.DetectedType == nil {
		coerced = append(coerced, "detected_type")
	} else {
		t := schemas.EntityType(strings.ToLower(strings.TrimSpace(*raw.DetectedType)))
		if schemas.KnownEntityType(t) {
			result.DetectedType = t
		} else {
			coerced = append(coerced, "detected_type")
		}
	}

	switch {
	case raw.Confidence == nil:
		coerced = append(coerced, "confidence")
	case *raw.Confidence < 0:
		coerced = append(coerced, "confidence")
	case *raw.Confidence > 1:
		result.Confidence = 1
		coerced = append(coerced, "confidence")
	default:
		result.Confidence = *raw.Confidence
	}

	if raw.RiskLevel != nil {
		result.RiskLevel = schemas.RiskLevel(strings.ToLower(strings.TrimSpace(*raw.RiskLevel)))
	} else {
		coerced = append(coerced, "risk_level")
	}

	if raw.SuggestedSearches != nil {
		result.SuggestedSearches = compactStrings(raw.SuggestedSearches)
	} else {
		coerced = append(coerced, "suggested_searches")
	}
	if raw.PotentialPlatforms != nil {
		result.PotentialPlatforms = compactStrings(raw.PotentialPlatforms)
	} else {
		coerced = append(coerced, "potential_platforms")
	}
	if raw.CorrelationPatterns != nil {
		result.CorrelationPatterns = compactStrings(raw.CorrelationPatterns)
	} else {
		coerced = append(coerced, "correlation_patterns")
	}

	if raw.ComplianceNotes != nil {
		result.ComplianceNotes = strings.TrimSpace(*raw.ComplianceNotes)
	}

	return result, coerced
}

// SanitizeReport fills a Report's sections from a raw report response.
// Missing fields become empty sections; export is never blocked.
func SanitizeReport(raw schemas.RawReport) map[schemas.ReportSection]string {
	return map[schemas.ReportSection]string{
		schemas.SectionExecutiveSummary:    strings.TrimSpace(raw.ExecutiveSummary),
		schemas.SectionEntityProfile:       strings.TrimSpace(raw.EntityProfile),
		schemas.SectionDigitalFootprint:    strings.TrimSpace(raw.DigitalFootprint),
		schemas.SectionRiskAssessment:      strings.TrimSpace(raw.RiskAssessment),
		schemas.SectionCorrelationAnalysis: strings.TrimSpace(raw.CorrelationAnalysis),
		schemas.SectionRecommendations:     strings.TrimSpace(raw.Recommendations),
		schemas.SectionComplianceNotes:     strings.TrimSpace(raw.ComplianceNotes),
	}
}

// compactStrings trims entries and drops empties, preserving order.
func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
