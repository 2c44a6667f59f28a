package classifier

import (
	"fmt"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

const classificationSystemPrompt = `You are an OSINT analysis assistant. You only perform legal,
ethical open-source intelligence assessment. Respond with a single JSON object matching the
requested schema and nothing else.`

func classificationUserPrompt(identifier string) string {
	return fmt.Sprintf(`Analyze this identifier for OSINT purposes: %q

Determine the type of identifier and suggest correlation patterns. Consider:
- What type of identifier this appears to be (email, username, domain, ip, phone)
- Potential related identifiers to search for
- Common username patterns if it is a username
- Domain variations if it is an email or domain
- Social media platforms where similar handles might exist
- Risk level and confidence scoring

Focus on legal, open-source intelligence gathering only.

Respond with JSON: {"detected_type": string, "confidence": number, "risk_level": string,
"suggested_searches": [string], "potential_platforms": [string],
"correlation_patterns": [string], "compliance_notes": string}`, identifier)
}

const reportSystemPrompt = `You are an OSINT analysis assistant writing for security and
intelligence professionals. Keep the tone professional. Respond with a single JSON object
matching the requested schema and nothing else.`

func reportUserPrompt(req schemas.ReportRequest) string {
	return fmt.Sprintf(`Generate a comprehensive OSINT intelligence report for this entity analysis:

Entity: %s
Type: %s
Confidence: %.2f
Risk Level: %s
Related Entities: %d

Create a professional intelligence report that includes:
1. Executive Summary
2. Entity Profile Analysis
3. Digital Footprint Assessment
4. Risk Assessment
5. Correlation Analysis
6. Recommendations for further investigation
7. Compliance and Legal Considerations

Respond with JSON: {"executive_summary": string, "entity_profile": string,
"digital_footprint": string, "risk_assessment": string, "correlation_analysis": string,
"recommendations": string, "compliance_notes": string}`,
		req.Identifier, req.Type, req.Analysis.Confidence, req.Analysis.RiskLevel, req.RelatedEntities)
}
