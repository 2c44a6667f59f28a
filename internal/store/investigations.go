package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/KomaVR/KXS-Osint-Soft/api/schemas"
)

// InvestigationStore persists case files in the investigations table.
type InvestigationStore struct {
	store *Store
}

var _ schemas.InvestigationRepository = (*InvestigationStore)(nil)

var investigationSortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
}

const investigationColumns = "id, title, description, compliance_notes, tags, status, priority, target_entities, findings, created_at, created_by"

// List returns investigations ordered by sortKey; limit <= 0 returns all.
func (s *InvestigationStore) List(ctx context.Context, sortKey string, limit int) ([]schemas.Investigation, error) {
	sql := fmt.Sprintf("SELECT %s FROM investigations ORDER BY %s", investigationColumns, orderClause(sortKey, investigationSortColumns))
	args := []interface{}{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list investigations: %w", err)
	}
	defer rows.Close()

	var records []schemas.Investigation
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investigations: %w", err)
	}
	return records, nil
}

// Get fetches an investigation by id.
func (s *InvestigationStore) Get(ctx context.Context, id string) (schemas.Investigation, error) {
	sql := fmt.Sprintf("SELECT %s FROM investigations WHERE id = $1", investigationColumns)
	inv, err := scanInvestigation(s.store.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return schemas.Investigation{}, fmt.Errorf("%w: no investigation with id %q", schemas.ErrNotFound, id)
	}
	if err != nil {
		return schemas.Investigation{}, err
	}
	return inv, nil
}

// Create inserts a new case record.
func (s *InvestigationStore) Create(ctx context.Context, inv schemas.Investigation) (schemas.Investigation, error) {
	tags, targets, findings, err := marshalInvestigationDocs(inv)
	if err != nil {
		return schemas.Investigation{}, err
	}

	sql := `
        INSERT INTO investigations (id, title, description, compliance_notes, tags, status, priority, target_entities, findings, created_at, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
    `
	if _, err := s.store.pool.Exec(ctx, sql,
		inv.ID, inv.Title, inv.Description, inv.ComplianceNotes,
		tags, string(inv.Status), string(inv.Priority),
		targets, findings, inv.CreatedAt.UTC(), inv.CreatedBy); err != nil {
		return schemas.Investigation{}, fmt.Errorf("failed to insert investigation: %w", err)
	}

	s.store.log.Debug("Investigation persisted", zap.String("id", inv.ID))
	return inv, nil
}

// Update replaces the mutable columns of a case record.
func (s *InvestigationStore) Update(ctx context.Context, id string, inv schemas.Investigation) (schemas.Investigation, error) {
	tags, targets, findings, err := marshalInvestigationDocs(inv)
	if err != nil {
		return schemas.Investigation{}, err
	}

	sql := `
        UPDATE investigations
        SET title = $2, description = $3, compliance_notes = $4, tags = $5,
            status = $6, priority = $7, target_entities = $8, findings = $9
        WHERE id = $1;
    `
	tag, err := s.store.pool.Exec(ctx, sql,
		id, inv.Title, inv.Description, inv.ComplianceNotes, tags,
		string(inv.Status), string(inv.Priority), targets, findings)
	if err != nil {
		return schemas.Investigation{}, fmt.Errorf("failed to update investigation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schemas.Investigation{}, fmt.Errorf("%w: no investigation with id %q", schemas.ErrNotFound, id)
	}
	inv.ID = id
	return inv, nil
}

func marshalInvestigationDocs(inv schemas.Investigation) (tags, targets, findings []byte, err error) {
	if tags, err = json.Marshal(inv.Tags); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if targets, err = json.Marshal(inv.TargetEntities); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal target entities: %w", err)
	}
	if findings, err = json.Marshal(inv.Findings); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal findings: %w", err)
	}
	return tags, targets, findings, nil
}

func scanInvestigation(row pgx.Row) (schemas.Investigation, error) {
	var (
		inv                              schemas.Investigation
		status, priority                 string
		tagsDoc, targetsDoc, findingsDoc []byte
	)
	if err := row.Scan(&inv.ID, &inv.Title, &inv.Description, &inv.ComplianceNotes,
		&tagsDoc, &status, &priority, &targetsDoc, &findingsDoc,
		&inv.CreatedAt, &inv.CreatedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schemas.Investigation{}, err
		}
		return schemas.Investigation{}, fmt.Errorf("failed to scan investigation row: %w", err)
	}
	inv.Status = schemas.InvestigationStatus(status)
	inv.Priority = schemas.Priority(priority)
	if err := unmarshalDoc(tagsDoc, &inv.Tags); err != nil {
		return schemas.Investigation{}, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := unmarshalDoc(targetsDoc, &inv.TargetEntities); err != nil {
		return schemas.Investigation{}, fmt.Errorf("failed to decode target entities: %w", err)
	}
	if err := unmarshalDoc(findingsDoc, &inv.Findings); err != nil {
		return schemas.Investigation{}, fmt.Errorf("failed to decode findings: %w", err)
	}
	return inv, nil
}
