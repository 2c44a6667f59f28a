package investigation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/locking"
	"github.com/KomaVR/KXS-Osint-Soft/internal/normalize"
)

// allowedTransitions maps a current status to the set of states it may move
// to. Archived is reachable from anywhere and is handled separately in
// Transition; it is listed here only for the non-archive edges.
var allowedTransitions = map[schemas.InvestigationStatus][]schemas.InvestigationStatus{
	schemas.StatusActive: {schemas.StatusPaused, schemas.StatusCompleted},
	schemas.StatusPaused: {schemas.StatusActive, schemas.StatusCompleted},
}

// Manager owns the case lifecycle. All mutations of a single investigation
// are serialized through a keyed lock arena so concurrent finding appends and
// status changes never interleave a read-modify-write.
type Manager struct {
	repo  schemas.InvestigationRepository
	locks *locking.Arena
	now   func() time.Time
	log   *zap.Logger
}

// NewManager creates a case manager over the given repository.
func NewManager(repo schemas.InvestigationRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		repo:  repo,
		locks: locking.NewArena(),
		now:   time.Now,
		log:   logger.Named("investigation"),
	}
}

// Draft carries the caller-supplied fields for a new investigation. Status,
// timestamps and the id are always assigned by the manager.
type Draft struct {
	Title           string
	Description     string
	ComplianceNotes string
	Tags            []string
	Priority        schemas.Priority
	CreatedBy       string
}

// Create opens a new case. New cases always start active regardless of any
// caller intent; priority defaults to medium when unset.
func (m *Manager) Create(ctx context.Context, draft Draft) (schemas.Investigation, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return schemas.Investigation{}, fmt.Errorf("%w: investigation title is required", schemas.ErrValidation)
	}

	priority := draft.Priority
	if priority == "" {
		priority = schemas.PriorityMedium
	}

	inv := schemas.Investigation{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     strings.TrimSpace(draft.Description),
		ComplianceNotes: strings.TrimSpace(draft.ComplianceNotes),
		Tags:            dedupeTags(draft.Tags),
		Status:          schemas.StatusActive,
		Priority:        priority,
		TargetEntities:  []string{},
		Findings:        []schemas.Finding{},
		CreatedAt:       m.now().UTC(),
		CreatedBy:       draft.CreatedBy,
	}

	created, err := m.repo.Create(ctx, inv)
	if err != nil {
		return schemas.Investigation{}, fmt.Errorf("creating investigation: %w", err)
	}
	m.log.Info("Investigation opened",
		zap.String("id", created.ID),
		zap.String("title", created.Title),
		zap.String("priority", string(created.Priority)))
	return created, nil
}

// Get fetches a single investigation by id.
func (m *Manager) Get(ctx context.Context, id string) (schemas.Investigation, error) {
	return m.repo.Get(ctx, id)
}

// Transition moves a case to the next lifecycle state. Archiving is allowed
// from any state; every other edge must appear in the transition table. On a
// disallowed edge the stored record is left untouched.
func (m *Manager) Transition(ctx context.Context, id string, next schemas.InvestigationStatus) (schemas.Investigation, error) {
	if !schemas.KnownStatus(next) {
		return schemas.Investigation{}, fmt.Errorf("%w: unknown status %q", schemas.ErrValidation, next)
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	inv, err := m.repo.Get(ctx, id)
	if err != nil {
		return schemas.Investigation{}, err
	}

	if !transitionAllowed(inv.Status, next) {
		return schemas.Investigation{}, fmt.Errorf("%w: %s -> %s", schemas.ErrInvalidTransition, inv.Status, next)
	}

	prev := inv.Status
	inv.Status = next
	updated, err := m.repo.Update(ctx, id, inv)
	if err != nil {
		return schemas.Investigation{}, fmt.Errorf("updating investigation %s: %w", id, err)
	}
	m.log.Info("Investigation status changed",
		zap.String("id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	return updated, nil
}

func transitionAllowed(from, to schemas.InvestigationStatus) bool {
	if to == schemas.StatusArchived {
		return true
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AddFinding appends a finding to the case evidence log. Findings are never
// reordered or rewritten after the append.
func (m *Manager) AddFinding(ctx context.Context, id string, f schemas.Finding) (schemas.Investigation, error) {
	if f.Timestamp.IsZero() {
		f.Timestamp = m.now().UTC()
	}
	if f.Confidence < 0 {
		f.Confidence = 0
	} else if f.Confidence > 1 {
		f.Confidence = 1
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	inv, err := m.repo.Get(ctx, id)
	if err != nil {
		return schemas.Investigation{}, err
	}

	inv.Findings = append(inv.Findings, f)
	updated, err := m.repo.Update(ctx, id, inv)
	if err != nil {
		return schemas.Investigation{}, fmt.Errorf("appending finding to %s: %w", id, err)
	}
	m.log.Debug("Finding recorded",
		zap.String("id", id),
		zap.String("type", f.Type),
		zap.Float64("confidence", f.Confidence))
	return updated, nil
}

// AddTargetEntity records an identifier as a target of the case. The target
// list keeps set semantics, so adding an identifier already present is a
// no-op that still succeeds.
func (m *Manager) AddTargetEntity(ctx context.Context, id, identifier string) (schemas.Investigation, error) {
	normalized, err := normalize.Identifier(identifier)
	if err != nil {
		return schemas.Investigation{}, err
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	inv, err := m.repo.Get(ctx, id)
	if err != nil {
		return schemas.Investigation{}, err
	}

	for _, existing := range inv.TargetEntities {
		if existing == normalized {
			return inv, nil
		}
	}

	inv.TargetEntities = append(inv.TargetEntities, normalized)
	updated, err := m.repo.Update(ctx, id, inv)
	if err != nil {
		return schemas.Investigation{}, fmt.Errorf("adding target to %s: %w", id, err)
	}
	return updated, nil
}

// Timeline derives the event history of a case from its creation time and
// findings. The result is sorted ascending by timestamp; events sharing a
// timestamp keep creation-before-finding, then finding insertion order.
func Timeline(inv schemas.Investigation) []schemas.TimelineEvent {
	events := make([]schemas.TimelineEvent, 0, len(inv.Findings)+1)
	events = append(events, schemas.TimelineEvent{
		Kind:      schemas.EventCreated,
		Label:     "Investigation created",
		Timestamp: inv.CreatedAt,
	})
	for _, f := range inv.Findings {
		label := f.Type
		if label == "" {
			label = "finding"
		}
		events = append(events, schemas.TimelineEvent{
			Kind:      schemas.EventFindingAdded,
			Label:     label,
			Timestamp: f.Timestamp,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

// Stats aggregates status and priority counts across all cases.
func (m *Manager) Stats(ctx context.Context) (schemas.CaseStats, error) {
	records, err := m.repo.List(ctx, "created_at", 0)
	if err != nil {
		return schemas.CaseStats{}, fmt.Errorf("listing investigations: %w", err)
	}

	var stats schemas.CaseStats
	for _, inv := range records {
		switch inv.Status {
		case schemas.StatusActive:
			stats.Active++
		case schemas.StatusPaused:
			stats.Paused++
		case schemas.StatusCompleted:
			stats.Completed++
		case schemas.StatusArchived:
			stats.Archived++
		}
		if inv.Priority == schemas.PriorityHigh || inv.Priority == schemas.PriorityCritical {
			stats.HighPriority++
		}
	}
	return stats, nil
}

// List returns cases filtered by status and a case-insensitive substring
// match over title and description. Either filter may be empty.
func (m *Manager) List(ctx context.Context, statusFilter schemas.InvestigationStatus, searchTerm string) ([]schemas.Investigation, error) {
	if statusFilter != "" && !schemas.KnownStatus(statusFilter) {
		return nil, fmt.Errorf("%w: unknown status %q", schemas.ErrValidation, statusFilter)
	}

	records, err := m.repo.List(ctx, "-created_at", 0)
	if err != nil {
		return nil, fmt.Errorf("listing investigations: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(searchTerm))
	filtered := records[:0]
	for _, inv := range records {
		if statusFilter != "" && inv.Status != statusFilter {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(inv.Title), term) &&
			!strings.Contains(strings.ToLower(inv.Description), term) {
			continue
		}
		filtered = append(filtered, inv)
	}
	return filtered, nil
}

// dedupeTags trims, drops empties and removes exact duplicates while
// preserving the first occurrence of each tag. Comparison is case-sensitive,
// so "Fraud" and "fraud" are distinct tags.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
