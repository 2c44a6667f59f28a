package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/classifier"
)

// Aggregator turns an analyzed entity into a structured intelligence report
// and renders it for export.
type Aggregator struct {
	client schemas.InferenceClient
	now    func() time.Time
	log    *zap.Logger
}

// NewAggregator creates a report aggregator over the given inference client.
func NewAggregator(client schemas.InferenceClient, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		client: client,
		now:    time.Now,
		log:    logger.Named("report"),
	}
}

// Generate produces a report for an analyzed entity. Report generation
// requires a completed analysis; a profile that was never classified cannot
// be reported on.
func (a *Aggregator) Generate(ctx context.Context, profile schemas.EntityProfile, analysis *schemas.ClassificationResult) (schemas.Report, error) {
	if analysis == nil {
		return schemas.Report{}, fmt.Errorf("%w: entity %q has no analysis", schemas.ErrIncompleteAnalysis, profile.Identifier)
	}

	raw, err := a.client.GenerateReport(ctx, schemas.ReportRequest{
		Identifier:      profile.Identifier,
		Type:            profile.Type,
		Analysis:        *analysis,
		RelatedEntities: len(profile.RelatedEntities),
	})
	if err != nil {
		return schemas.Report{}, fmt.Errorf("generating report for %q: %w", profile.Identifier, err)
	}

	report := schemas.Report{
		Identifier:  profile.Identifier,
		GeneratedAt: a.now().UTC(),
		Sections:    classifier.SanitizeReport(raw),
	}
	a.log.Info("Report generated", zap.String("identifier", profile.Identifier))
	return report, nil
}

// Export renders the report as flat UTF-8 text. Rendering is deterministic:
// the same report always produces byte-identical output.
func Export(r schemas.Report) string {
	var b strings.Builder
	b.WriteString("OSINT INTELLIGENCE REPORT\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Entity: %s\n\n", r.Identifier)

	for _, section := range schemas.ReportSections {
		b.WriteString(schemas.SectionHeadings[section])
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(schemas.SectionHeadings[section])))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(r.Sections[section]))
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteFile exports the report into dir, creating it when necessary. The
// filename embeds a filesystem-safe slug of the identifier and the UTC date.
func (a *Aggregator) WriteFile(r schemas.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory %q: %w", dir, err)
	}

	name := fmt.Sprintf("OSINT_Report_%s_%s.txt", slug(r.Identifier), r.GeneratedAt.UTC().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(Export(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	a.log.Info("Report written", zap.String("path", path))
	return path, nil
}

// slug replaces every character outside [A-Za-z0-9._-] with an underscore so
// arbitrary identifiers produce portable filenames.
func slug(identifier string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, identifier)
	if mapped == "" {
		return "entity"
	}
	return mapped
}
