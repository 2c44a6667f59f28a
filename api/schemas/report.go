package schemas

import "time"

// -- Report Schemas --

// ReportSection identifies one of the fixed sections of an intelligence
// report. The order of the Sections slice below is the canonical heading
// order for export.
type ReportSection string

const (
	SectionExecutiveSummary    ReportSection = "executive_summary"
	SectionEntityProfile       ReportSection = "entity_profile"
	SectionDigitalFootprint    ReportSection = "digital_footprint"
	SectionRiskAssessment      ReportSection = "risk_assessment"
	SectionCorrelationAnalysis ReportSection = "correlation_analysis"
	SectionRecommendations     ReportSection = "recommendations"
	SectionComplianceNotes     ReportSection = "compliance_notes"
)

// ReportSections enumerates every section in export order.
var ReportSections = []ReportSection{
	SectionExecutiveSummary,
	SectionEntityProfile,
	SectionDigitalFootprint,
	SectionRiskAssessment,
	SectionCorrelationAnalysis,
	SectionRecommendations,
	SectionComplianceNotes,
}

// SectionHeadings maps each section to its flat-text export heading.
var SectionHeadings = map[ReportSection]string{
	SectionExecutiveSummary:    "EXECUTIVE SUMMARY",
	SectionEntityProfile:       "ENTITY PROFILE ANALYSIS",
	SectionDigitalFootprint:    "DIGITAL FOOTPRINT ASSESSMENT",
	SectionRiskAssessment:      "RISK ASSESSMENT",
	SectionCorrelationAnalysis: "CORRELATION ANALYSIS",
	SectionRecommendations:     "RECOMMENDATIONS",
	SectionComplianceNotes:     "COMPLIANCE AND LEGAL CONSIDERATIONS",
}

// Report is the assembled intelligence report for one entity. Missing
// sections render as empty headings on export; they never block it.
type Report struct {
	Identifier  string                   `json:"identifier"`
	GeneratedAt time.Time                `json:"generated_at"`
	Sections    map[ReportSection]string `json:"sections"`
}
