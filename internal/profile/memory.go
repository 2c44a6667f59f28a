package profile

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
// schemas.ProfileRepository. It backs tests, short-lived sessions and
// workstations without a database.
type InMemoryRepository struct {
	byID         map[string]schemas.EntityProfile
	byIdentifier map[string]string // normalized identifier -> profile ID
	mu           sync.RWMutex
	log          *zap.Logger
}

var _ schemas.ProfileRepository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates a new, empty in-memory profile repository.
func NewInMemoryRepository(logger *zap.Logger) *InMemoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryRepository{
		byID:         make(map[string]schemas.EntityProfile),
		byIdentifier: make(map[string]string),
		log:          logger.Named("profile.memory"),
	}
}

// List returns profiles ordered by sortKey ("created_at" or "identifier",
// "-" prefix for descending). limit <= 0 returns everything.
func (r *InMemoryRepository) List(ctx context.Context, sortKey string, limit int) ([]schemas.EntityProfile, error) {
	r.mu.RLock()
	profiles := make([]schemas.EntityProfile, 0, len(r.byID))
	for _, p := range r.byID {
		profiles = append(profiles, p)
	}
	r.mu.RUnlock()

	sortProfiles(profiles, sortKey)
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

// GetByIdentifier fetches the profile for a normalized identifier.
func (r *InMemoryRepository) GetByIdentifier(ctx context.Context, identifier string) (schemas.EntityProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentifier[identifier]
	if !ok {
		return schemas.EntityProfile{}, fmt.Errorf("%w: no profile for identifier %q", schemas.ErrNotFound, identifier)
	}
	return r.byID[id], nil
}

// Create inserts a new profile.
func (r *InMemoryRepository) Create(ctx context.Context, p schemas.EntityProfile) (schemas.EntityProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byIdentifier[p.Identifier]; ok {
		return schemas.EntityProfile{}, fmt.Errorf("profile for identifier %q already exists as %s", p.Identifier, existing)
	}
	r.byID[p.ID] = p
	r.byIdentifier[p.Identifier] = p.ID
	r.log.Debug("Profile created", zap.String("id", p.ID), zap.String("identifier", p.Identifier))
	return p, nil
}

// Update atomically replaces the profile with the given id.
func (r *InMemoryRepository) Update(ctx context.Context, id string, p schemas.EntityProfile) (schemas.EntityProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return schemas.EntityProfile{}, fmt.Errorf("%w: no profile with id %q", schemas.ErrNotFound, id)
	}
	// Identifier is the dedup key; it never changes after creation.
	p.ID = current.ID
	p.Identifier = current.Identifier
	p.CreatedAt = current.CreatedAt
	r.byID[id] = p
	return p, nil
}

func sortProfiles(profiles []schemas.EntityProfile, sortKey string) {
	desc := strings.HasPrefix(sortKey, "-")
	key := strings.TrimPrefix(sortKey, "-")

	sort.SliceStable(profiles, func(i, j int) bool {
		var less bool
		switch key {
		case "identifier":
			less = profiles[i].Identifier < profiles[j].Identifier
		default: // created_at
			less = profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}
