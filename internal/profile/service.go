// Package profile owns entity profile records: creation, dedup by normalized
// identifier, and confidence-maximizing merges of correlation candidates.
// It is the only component allowed to construct or mutate EntityProfile
// instances.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/locking"
	"github.com/KomaVR/KXS-Osint-Soft/internal/normalize"
)

// Confidence assigned to correlation candidates derived from a
// classification. Suggested searches rank above platform guesses.
const (
	suggestedSearchConfidence   = 0.7
	potentialPlatformConfidence = 0.6
	correlationSource           = "ai_correlation"
)

// Service implements the upsert and merge semantics over a
// ProfileRepository. Mutations on the same normalized identifier serialize
// through a keyed lock arena; distinct identifiers proceed in parallel.
type Service struct {
	repo  schemas.ProfileRepository
	locks *locking.Arena
	now   func() time.Time
	log   *zap.Logger
}

// NewService creates a profile service over the given repository.
func NewService(repo schemas.ProfileRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:  repo,
		locks: locking.NewArena(),
		now:   time.Now,
		log:   logger.Named("profile"),
	}
}

// Upsert records a classification result against the profile for
// rawIdentifier, creating the profile on first sight and merging into it on
// every subsequent sighting. typeOverride, when non-empty, wins over the
// classifier's detected type at creation time. A resolved type is never
// overwritten later unless the stored type is still unknown.
func (s *Service) Upsert(ctx context.Context, rawIdentifier string, typeOverride schemas.EntityType, classification schemas.ClassificationResult) (schemas.EntityProfile, error) {
	identifier, err := normalize.Identifier(rawIdentifier)
	if err != nil {
		return schemas.EntityProfile{}, err
	}

	unlock := s.locks.Lock(identifier)
	defer unlock()

	// An abandoned search must not commit a partial result.
	if err := ctx.Err(); err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("upsert aborted: %w", err)
	}

	related := relatedFromClassification(classification)
	social := socialFromClassification(identifier, classification)

	existing, err := s.repo.GetByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		return s.merge(ctx, existing, classification.DetectedType, related, social)
	case isNotFound(err):
		return s.create(ctx, identifier, typeOverride, classification.DetectedType, related, social)
	default:
		return schemas.EntityProfile{}, fmt.Errorf("failed to look up profile: %w", err)
	}
}

// Get fetches the profile for a raw identifier.
func (s *Service) Get(ctx context.Context, rawIdentifier string) (schemas.EntityProfile, error) {
	identifier, err := normalize.Identifier(rawIdentifier)
	if err != nil {
		return schemas.EntityProfile{}, err
	}
	return s.repo.GetByIdentifier(ctx, identifier)
}

// List returns stored profiles ordered by sortKey.
func (s *Service) List(ctx context.Context, sortKey string, limit int) ([]schemas.EntityProfile, error) {
	return s.repo.List(ctx, sortKey, limit)
}

func (s *Service) create(ctx context.Context, identifier string, typeOverride, detected schemas.EntityType, related []schemas.RelatedEntityRef, social []schemas.SocialProfile) (schemas.EntityProfile, error) {
	entityType := typeOverride
	if entityType == "" {
		entityType = detected
	}
	if entityType == "" {
		entityType = schemas.EntityUnknown
	}

	p := schemas.EntityProfile{
		ID:              uuid.NewString(),
		Identifier:      identifier,
		Type:            entityType,
		RelatedEntities: mergeRelated(nil, related),
		SocialProfiles:  mergeSocial(nil, social),
		CreatedAt:       s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	s.log.Info("Entity profile created",
		zap.String("id", created.ID),
		zap.String("identifier", created.Identifier),
		zap.String("type", string(created.Type)))
	return created, nil
}

func (s *Service) merge(ctx context.Context, existing schemas.EntityProfile, detected schemas.EntityType, related []schemas.RelatedEntityRef, social []schemas.SocialProfile) (schemas.EntityProfile, error) {
	merged := existing
	merged.RelatedEntities = mergeRelated(existing.RelatedEntities, related)
	merged.SocialProfiles = mergeSocial(existing.SocialProfiles, social)
	if existing.Type == schemas.EntityUnknown && detected != "" {
		merged.Type = detected
	}

	updated, err := s.repo.Update(ctx, existing.ID, merged)
	if err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to merge profile: %w", err)
	}
	s.log.Info("Entity profile merged",
		zap.String("id", updated.ID),
		zap.String("identifier", updated.Identifier),
		zap.Int("related_entities", len(updated.RelatedEntities)),
		zap.Int("social_profiles", len(updated.SocialProfiles)))
	return updated, nil
}

// relatedFromClassification turns suggested searches into correlation
// candidates of type potential.
func relatedFromClassification(c schemas.ClassificationResult) []schemas.RelatedEntityRef {
	refs := make([]schemas.RelatedEntityRef, 0, len(c.SuggestedSearches))
	for _, search := range c.SuggestedSearches {
		refs = append(refs, schemas.RelatedEntityRef{
			Identifier: search,
			Type:       schemas.EntityPotential,
			Confidence: suggestedSearchConfidence,
			Source:     correlationSource,
		})
	}
	return refs
}

// socialFromClassification turns platform guesses into suspected presences
// under the searched handle.
func socialFromClassification(identifier string, c schemas.ClassificationResult) []schemas.SocialProfile {
	profiles := make([]schemas.SocialProfile, 0, len(c.PotentialPlatforms))
	for _, platform := range c.PotentialPlatforms {
		profiles = append(profiles, schemas.SocialProfile{
			Platform:   platform,
			Username:   identifier,
			Confidence: potentialPlatformConfidence,
		})
	}
	return profiles
}

func isNotFound(err error) bool {
	return errors.Is(err, schemas.ErrNotFound)
}
