package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return s, mockPool
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	doc, err := json.Marshal(v)
	require.NoError(t, err)
	return doc
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestProfileStore(t *testing.T) {
	ctx := context.Background()

	sample := schemas.EntityProfile{
		ID:         "11111111-1111-1111-1111-111111111111",
		Identifier: "doe@example.com",
		Type:       schemas.EntityEmail,
		RelatedEntities: []schemas.RelatedEntityRef{
			{Identifier: "jdoe", Type: schemas.EntityPotential, Confidence: 0.7, Source: "ai_correlation"},
		},
		SocialProfiles: []schemas.SocialProfile{
			{Platform: "github", Username: "doe@example.com", Confidence: 0.6},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	t.Run("GetByIdentifier decodes JSONB documents", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		rows := pgxmock.NewRows([]string{"id", "identifier", "entity_type", "related_entities", "social_profiles", "created_at"}).
			AddRow(sample.ID, sample.Identifier, string(sample.Type),
				mustJSON(t, sample.RelatedEntities), mustJSON(t, sample.SocialProfiles), sample.CreatedAt)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT "+profileColumns+" FROM entity_profiles WHERE identifier = $1")).
			WithArgs(sample.Identifier).
			WillReturnRows(rows)

		got, err := s.Profiles().GetByIdentifier(ctx, sample.Identifier)
		require.NoError(t, err)
		assert.Equal(t, sample, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("GetByIdentifier maps no rows to ErrNotFound", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT "+profileColumns+" FROM entity_profiles WHERE identifier = $1")).
			WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows([]string{"id", "identifier", "entity_type", "related_entities", "social_profiles", "created_at"}))

		_, err := s.Profiles().GetByIdentifier(ctx, "nobody")
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Create inserts with UTC timestamp", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO entity_profiles")).
			WithArgs(sample.ID, sample.Identifier, string(sample.Type),
				mustJSON(t, sample.RelatedEntities), mustJSON(t, sample.SocialProfiles), sample.CreatedAt.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		got, err := s.Profiles().Create(ctx, sample)
		require.NoError(t, err)
		assert.Equal(t, sample, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Create reports a conflict when no row is inserted", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO entity_profiles")).
			WithArgs(sample.ID, sample.Identifier, string(sample.Type),
				mustJSON(t, sample.RelatedEntities), mustJSON(t, sample.SocialProfiles), sample.CreatedAt.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		_, err := s.Profiles().Create(ctx, sample)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Update maps zero affected rows to ErrNotFound", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher("UPDATE entity_profiles")).
			WithArgs(sample.ID, string(sample.Type),
				mustJSON(t, sample.RelatedEntities), mustJSON(t, sample.SocialProfiles)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err := s.Profiles().Update(ctx, sample.ID, sample)
		require.Error(t, err)
		assert.ErrorIs(t, err, schemas.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("List applies sort direction and limit", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		rows := pgxmock.NewRows([]string{"id", "identifier", "entity_type", "related_entities", "social_profiles", "created_at"}).
			AddRow(sample.ID, sample.Identifier, string(sample.Type), []byte("null"), []byte(nil), sample.CreatedAt)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT " + profileColumns + " FROM entity_profiles ORDER BY identifier DESC LIMIT $1")).
			WithArgs(5).
			WillReturnRows(rows)

		profiles, err := s.Profiles().List(ctx, "-identifier", 5)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Nil(t, profiles[0].RelatedEntities, "JSONB null decodes to an empty list")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestInvestigationStore(t *testing.T) {
	ctx := context.Background()

	sample := schemas.Investigation{
		ID:             "22222222-2222-2222-2222-222222222222",
		Title:          "Persona sweep",
		Description:    "cross-platform persona correlation",
		Tags:           []string{"osint"},
		Status:         schemas.StatusActive,
		Priority:       schemas.PriorityHigh,
		TargetEntities: []string{"doe@example.com"},
		Findings: []schemas.Finding{
			{Type: "breach_hit", Confidence: 0.8, Timestamp: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
		},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatedBy: "analyst",
	}

	investigationRowColumns := []string{"id", "title", "description", "compliance_notes", "tags", "status", "priority", "target_entities", "findings", "created_at", "created_by"}

	sampleRow := func(t *testing.T) *pgxmock.Rows {
		return pgxmock.NewRows(investigationRowColumns).
			AddRow(sample.ID, sample.Title, sample.Description, sample.ComplianceNotes,
				mustJSON(t, sample.Tags), string(sample.Status), string(sample.Priority),
				mustJSON(t, sample.TargetEntities), mustJSON(t, sample.Findings),
				sample.CreatedAt, sample.CreatedBy)
	}

	t.Run("Get round-trips every column", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT "+investigationColumns+" FROM investigations WHERE id = $1")).
			WithArgs(sample.ID).
			WillReturnRows(sampleRow(t))

		got, err := s.Investigations().Get(ctx, sample.ID)
		require.NoError(t, err)
		assert.Equal(t, sample, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Get maps no rows to ErrNotFound", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT "+investigationColumns+" FROM investigations WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(investigationRowColumns))

		_, err := s.Investigations().Get(ctx, "missing")
		assert.ErrorIs(t, err, schemas.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Create inserts all columns", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO investigations")).
			WithArgs(sample.ID, sample.Title, sample.Description, sample.ComplianceNotes,
				mustJSON(t, sample.Tags), string(sample.Status), string(sample.Priority),
				mustJSON(t, sample.TargetEntities), mustJSON(t, sample.Findings),
				sample.CreatedAt.UTC(), sample.CreatedBy).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		got, err := s.Investigations().Create(ctx, sample)
		require.NoError(t, err)
		assert.Equal(t, sample, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Update maps zero affected rows to ErrNotFound", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher("UPDATE investigations")).
			WithArgs(sample.ID, sample.Title, sample.Description, sample.ComplianceNotes,
				mustJSON(t, sample.Tags), string(sample.Status), string(sample.Priority),
				mustJSON(t, sample.TargetEntities), mustJSON(t, sample.Findings)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		_, err := s.Investigations().Update(ctx, sample.ID, sample)
		assert.ErrorIs(t, err, schemas.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("List without limit issues no LIMIT clause", func(t *testing.T) {
		s, mockPool := newMockStore(t)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT " + investigationColumns + " FROM investigations ORDER BY created_at DESC")).
			WillReturnRows(sampleRow(t))

		records, err := s.Investigations().List(ctx, "-created_at", 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	s, mockPool := newMockStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher("CREATE TABLE IF NOT EXISTS entity_profiles")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectExec(flexibleSQLMatcher("CREATE TABLE IF NOT EXISTS investigations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "created_at ASC", orderClause("created_at", profileSortColumns))
	assert.Equal(t, "identifier DESC", orderClause("-identifier", profileSortColumns))
	assert.Equal(t, "created_at ASC", orderClause("bogus", profileSortColumns))
	assert.Equal(t, "title ASC", orderClause("title", investigationSortColumns))
}
