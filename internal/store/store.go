package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the store can be exercised against a mock
// in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the PostgreSQL persistence layer. Structured sub-documents
// (related entities, social profiles, findings, tags, targets) live in JSONB
// columns. The repository interfaces are served by the Profiles and
// Investigations views since their method sets overlap by name.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables the store depends on when they do not
// exist yet. It is safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS entity_profiles (
            id UUID PRIMARY KEY,
            identifier TEXT NOT NULL UNIQUE,
            entity_type TEXT NOT NULL,
            related_entities JSONB NOT NULL DEFAULT '[]',
            social_profiles JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMPTZ NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS investigations (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            compliance_notes TEXT NOT NULL DEFAULT '',
            tags JSONB NOT NULL DEFAULT '[]',
            status TEXT NOT NULL,
            priority TEXT NOT NULL,
            target_entities JSONB NOT NULL DEFAULT '[]',
            findings JSONB NOT NULL DEFAULT '[]',
            created_at TIMESTAMPTZ NOT NULL,
            created_by TEXT NOT NULL DEFAULT ''
        );`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Profiles returns the schemas.ProfileRepository view of the store.
func (s *Store) Profiles() *ProfileStore {
	return &ProfileStore{store: s}
}

// Investigations returns the schemas.InvestigationRepository view.
func (s *Store) Investigations() *InvestigationStore {
	return &InvestigationStore{store: s}
}

// orderClause translates a repository sortKey into SQL. Unknown keys fall
// back to created_at ascending rather than erroring.
func orderClause(sortKey string, columns map[string]string) string {
	direction := "ASC"
	key := sortKey
	if strings.HasPrefix(sortKey, "-") {
		direction = "DESC"
		key = sortKey[1:]
	}
	column, ok := columns[key]
	if !ok {
		column = "created_at"
	}
	return column + " " + direction
}

// -- Profile repository --

// ProfileStore persists entity profiles in the entity_profiles table.
type ProfileStore struct {
	store *Store
}

var _ schemas.ProfileRepository = (*ProfileStore)(nil)

var profileSortColumns = map[string]string{
	"created_at": "created_at",
	"identifier": "identifier",
}

const profileColumns = "id, identifier, entity_type, related_entities, social_profiles, created_at"

// List returns profiles ordered by sortKey; limit <= 0 returns all.
func (p *ProfileStore) List(ctx context.Context, sortKey string, limit int) ([]schemas.EntityProfile, error) {
	sql := fmt.Sprintf("SELECT %s FROM entity_profiles ORDER BY %s", profileColumns, orderClause(sortKey, profileSortColumns))
	args := []interface{}{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := p.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []schemas.EntityProfile
	for rows.Next() {
		prof, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, prof)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

// GetByIdentifier fetches the profile stored under a normalized identifier.
func (p *ProfileStore) GetByIdentifier(ctx context.Context, identifier string) (schemas.EntityProfile, error) {
	sql := fmt.Sprintf("SELECT %s FROM entity_profiles WHERE identifier = $1", profileColumns)
	prof, err := scanProfile(p.store.pool.QueryRow(ctx, sql, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return schemas.EntityProfile{}, fmt.Errorf("%w: no profile for identifier %q", schemas.ErrNotFound, identifier)
	}
	if err != nil {
		return schemas.EntityProfile{}, err
	}
	return prof, nil
}

// Create inserts a new profile. The identifier carries a unique constraint,
// so concurrent first-writers cannot produce two rows for one identifier.
func (p *ProfileStore) Create(ctx context.Context, profile schemas.EntityProfile) (schemas.EntityProfile, error) {
	related, social, err := marshalProfileDocs(profile)
	if err != nil {
		return schemas.EntityProfile{}, err
	}

	sql := `
        INSERT INTO entity_profiles (id, identifier, entity_type, related_entities, social_profiles, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (identifier) DO NOTHING;
    `
	tag, err := p.store.pool.Exec(ctx, sql,
		profile.ID, profile.Identifier, string(profile.Type),
		related, social, profile.CreatedAt.UTC())
	if err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to insert profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schemas.EntityProfile{}, fmt.Errorf("profile for identifier %q already exists", profile.Identifier)
	}

	p.store.log.Debug("Profile persisted", zap.String("id", profile.ID), zap.String("identifier", profile.Identifier))
	return profile, nil
}

// Update replaces the mutable columns of the profile with the given id.
func (p *ProfileStore) Update(ctx context.Context, id string, profile schemas.EntityProfile) (schemas.EntityProfile, error) {
	related, social, err := marshalProfileDocs(profile)
	if err != nil {
		return schemas.EntityProfile{}, err
	}

	sql := `
        UPDATE entity_profiles
        SET entity_type = $2, related_entities = $3, social_profiles = $4
        WHERE id = $1;
    `
	tag, err := p.store.pool.Exec(ctx, sql, id, string(profile.Type), related, social)
	if err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schemas.EntityProfile{}, fmt.Errorf("%w: no profile with id %q", schemas.ErrNotFound, id)
	}
	profile.ID = id
	return profile, nil
}

func marshalProfileDocs(p schemas.EntityProfile) (related, social []byte, err error) {
	if related, err = json.Marshal(p.RelatedEntities); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal related entities: %w", err)
	}
	if social, err = json.Marshal(p.SocialProfiles); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal social profiles: %w", err)
	}
	return related, social, nil
}

func scanProfile(row pgx.Row) (schemas.EntityProfile, error) {
	var (
		p                     schemas.EntityProfile
		entityType            string
		relatedDoc, socialDoc []byte
	)
	if err := row.Scan(&p.ID, &p.Identifier, &entityType, &relatedDoc, &socialDoc, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schemas.EntityProfile{}, err
		}
		return schemas.EntityProfile{}, fmt.Errorf("failed to scan profile row: %w", err)
	}
	p.Type = schemas.EntityType(entityType)
	if err := unmarshalDoc(relatedDoc, &p.RelatedEntities); err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to decode related entities: %w", err)
	}
	if err := unmarshalDoc(socialDoc, &p.SocialProfiles); err != nil {
		return schemas.EntityProfile{}, fmt.Errorf("failed to decode social profiles: %w", err)
	}
	return p, nil
}

// unmarshalDoc decodes a JSONB column, treating NULL and "null" as empty.
func unmarshalDoc(doc []byte, target interface{}) error {
	if len(doc) == 0 || string(doc) == "null" {
		return nil
	}
	return json.Unmarshal(doc, target)
}
