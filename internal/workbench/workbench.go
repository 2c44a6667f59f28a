package workbench

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/classifier"
	"github.com/KomaVR/KXS-Osint-Soft/internal/graph"
	"github.com/KomaVR/KXS-Osint-Soft/internal/normalize"
	"github.com/KomaVR/KXS-Osint-Soft/internal/profile"
)

// SearchResult bundles everything one entity search produces.
type SearchResult struct {
	Profile  schemas.EntityProfile        `json:"profile"`
	Analysis schemas.ClassificationResult `json:"analysis"`
	Graph    schemas.CorrelationGraph     `json:"graph"`
}

// Workbench runs the full search pipeline: classify an identifier, fold the
// result into the profile store and lay out the correlation graph.
type Workbench struct {
	adapter  *classifier.Adapter
	profiles *profile.Service
	group    singleflight.Group
	log      *zap.Logger
}

// New creates a workbench over an inference adapter and profile service.
func New(adapter *classifier.Adapter, profiles *profile.Service, logger *zap.Logger) *Workbench {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workbench{
		adapter:  adapter,
		profiles: profiles,
		log:      logger.Named("workbench"),
	}
}

// Search analyzes rawIdentifier end to end. Concurrent searches for the same
// normalized identifier and type override collapse into a single inference
// call and share its result; a caller forcing a different override runs its
// own pipeline. Cancellation after classification but before persistence
// aborts without touching the store.
func (w *Workbench) Search(ctx context.Context, rawIdentifier string, typeOverride schemas.EntityType) (SearchResult, error) {
	identifier, err := normalize.Identifier(rawIdentifier)
	if err != nil {
		return SearchResult{}, err
	}

	key := identifier + "\x00" + string(typeOverride)
	value, err, shared := w.group.Do(key, func() (any, error) {
		return w.run(ctx, identifier, typeOverride)
	})
	if err != nil {
		return SearchResult{}, err
	}
	if shared {
		w.log.Debug("Search collapsed into in-flight call", zap.String("identifier", identifier))
	}
	return value.(SearchResult), nil
}

func (w *Workbench) run(ctx context.Context, identifier string, typeOverride schemas.EntityType) (SearchResult, error) {
	analysis, err := w.adapter.Classify(ctx, identifier)
	if err != nil {
		return SearchResult{}, fmt.Errorf("classifying %q: %w", identifier, err)
	}

	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}

	prof, err := w.profiles.Upsert(ctx, identifier, typeOverride, analysis)
	if err != nil {
		return SearchResult{}, err
	}

	w.log.Info("Search completed",
		zap.String("identifier", identifier),
		zap.String("type", string(prof.Type)),
		zap.Int("related", len(prof.RelatedEntities)))

	return SearchResult{
		Profile:  prof,
		Analysis: analysis,
		Graph:    graph.Build(prof),
	}, nil
}
