package investigation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// InMemoryRepository is a fast, ephemeral implementation of
// schemas.InvestigationRepository.
type InMemoryRepository struct {
	records map[string]schemas.Investigation
	mu      sync.RWMutex
	log     *zap.Logger
}

var _ schemas.InvestigationRepository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a new, empty in-memory case repository.
func NewInMemoryRepository(logger *zap.Logger) *InMemoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryRepository{
		records: make(map[string]schemas.Investigation),
		log:     logger.Named("investigation.memory"),
	}
}

// List returns investigations ordered by sortKey ("created_at" or "title",
// "-" prefix for descending). limit <= 0 returns everything.
func (r *InMemoryRepository) List(ctx context.Context, sortKey string, limit int) ([]schemas.Investigation, error) {
	r.mu.RLock()
	records := make([]schemas.Investigation, 0, len(r.records))
	for _, inv := range r.records {
		records = append(records, inv)
	}
	r.mu.RUnlock()

	desc := strings.HasPrefix(sortKey, "-")
	key := strings.TrimPrefix(sortKey, "-")
	sort.SliceStable(records, func(i, j int) bool {
		var less bool
		switch key {
		case "title":
			less = records[i].Title < records[j].Title
		default: // created_at
			less = records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Get fetches an investigation by id.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (schemas.Investigation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.records[id]
	if !ok {
		return schemas.Investigation{}, fmt.Errorf("%w: no investigation with id %q", schemas.ErrNotFound, id)
	}
	return inv, nil
}

// Create inserts a new investigation.
func (r *InMemoryRepository) Create(ctx context.Context, inv schemas.Investigation) (schemas.Investigation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[inv.ID]; exists {
		return schemas.Investigation{}, fmt.Errorf("investigation %q already exists", inv.ID)
	}
	r.records[inv.ID] = inv
	r.log.Debug("Investigation created", zap.String("id", inv.ID), zap.String("title", inv.Title))
	return inv, nil
}

// Update atomically replaces the investigation with the given id.
func (r *InMemoryRepository) Update(ctx context.Context, id string, inv schemas.Investigation) (schemas.Investigation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[id]
	if !ok {
		return schemas.Investigation{}, fmt.Errorf("%w: no investigation with id %q", schemas.ErrNotFound, id)
	}
	inv.ID = current.ID
	inv.CreatedAt = current.CreatedAt
	inv.CreatedBy = current.CreatedBy
	r.records[id] = inv
	return inv, nil
}
