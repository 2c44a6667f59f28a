package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
	"github.com/KomaVR/KXS-Osint-Soft/internal/classifier"
	"github.com/KomaVR/KXS-Osint-Soft/internal/config"
	"github.com/KomaVR/KXS-Osint-Soft/internal/investigation"
	"github.com/KomaVR/KXS-Osint-Soft/internal/profile"
	"github.com/KomaVR/KXS-Osint-Soft/internal/report"
	"github.com/KomaVR/KXS-Osint-Soft/internal/store"
	"github.com/KomaVR/KXS-Osint-Soft/internal/workbench"
)

// Components bundles every initialized collaborator a command needs.
type Components struct {
	Client         schemas.InferenceClient
	Profiles       *profile.Service
	Investigations *investigation.Manager
	Workbench      *workbench.Workbench
	Reports        *report.Aggregator

	dbPool *pgxpool.Pool
	log    *zap.Logger
}

// Shutdown releases the inference client and the database pool, if any.
func (c *Components) Shutdown() {
	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			c.log.Warn("Failed to close inference client", zap.Error(err))
		}
	}
	if c.dbPool != nil {
		c.dbPool.Close()
	}
}

// Build performs the dependency injection for the CLI. With a database URL
// configured the repositories are postgres-backed; otherwise everything runs
// in memory for single-invocation use.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	components := &Components{log: logger}

	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Inference client.
	client, err := classifier.NewClient(cfg.Classifier, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to create inference client: %w", err)
		return nil, initializationErr
	}
	components.Client = client

	// 2. Repositories.
	var (
		profileRepo       schemas.ProfileRepository
		investigationRepo schemas.InvestigationRepository
	)
	if cfg.Database.URL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			initializationErr = fmt.Errorf("failed to create database connection pool: %w", err)
			return nil, initializationErr
		}
		components.dbPool = dbPool

		dbStore, err := store.New(ctx, dbPool, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize database store: %w", err)
			return nil, initializationErr
		}
		if err := dbStore.EnsureSchema(ctx); err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		profileRepo = dbStore.Profiles()
		investigationRepo = dbStore.Investigations()
		logger.Debug("Database store initialized.")
	} else {
		profileRepo = profile.NewInMemoryRepository(logger)
		investigationRepo = investigation.NewInMemoryRepository(logger)
		logger.Debug("Using in-memory repositories.")
	}

	// 3. Domain services.
	adapter := classifier.NewAdapter(client, logger)
	components.Profiles = profile.NewService(profileRepo, logger)
	components.Investigations = investigation.NewManager(investigationRepo, logger)
	components.Workbench = workbench.New(adapter, components.Profiles, logger)
	components.Reports = report.NewAggregator(client, logger)

	return components, nil
}
