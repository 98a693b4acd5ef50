package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/blueprint-engine/internal/generation"
)

const suiteColumns = `id, project_id, status, selected_types, completed_count, total_count, created_at, updated_at`

func scanSuite(row pgx.Row) (*Suite, error) {
	var s Suite
	err := row.Scan(&s.ID, &s.ProjectID, &s.Status, &s.SelectedTypes, &s.CompletedCount, &s.TotalCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSuite inserts a new generating suite unless the project already has
// an active one. The check is a single atomic insert against the partial
// unique index on (project_id) for active statuses, not a separate query, so
// two concurrent calls for the same project cannot both create a suite.
// Returns created=false (and no suite) when the insert lost to an existing
// active suite.
func (db *DB) CreateSuite(ctx context.Context, projectID uuid.UUID, selectedTypes []string) (*Suite, bool, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO suites (project_id, status, selected_types, total_count)
		 VALUES ($1, 'generating', $2, $3)
		 ON CONFLICT (project_id) WHERE status IN ('generating', 'complete', 'partial') DO NOTHING
		 RETURNING `+suiteColumns,
		projectID, selectedTypes, len(selectedTypes),
	)
	s, err := scanSuite(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create suite: %w", err)
	}
	return s, true, nil
}

// FindActiveSuite returns the project's active suite
// (generating/complete/partial), or (nil, nil) when there is none.
func (db *DB) FindActiveSuite(ctx context.Context, projectID uuid.UUID) (*Suite, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+suiteColumns+` FROM suites
		 WHERE project_id = $1 AND status IN ('generating', 'complete', 'partial')`,
		projectID,
	)
	s, err := scanSuite(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active suite: %w", err)
	}
	return s, nil
}

// GetSuite retrieves a suite by ID. Returns (nil, nil) when absent.
func (db *DB) GetSuite(ctx context.Context, suiteID uuid.UUID) (*Suite, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+suiteColumns+` FROM suites WHERE id = $1`, suiteID)
	s, err := scanSuite(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get suite: %w", err)
	}
	return s, nil
}

// UpdateSuiteStatus persists the derived batch status and completed count.
func (db *DB) UpdateSuiteStatus(ctx context.Context, suiteID uuid.UUID, status generation.BatchStatus, completedCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE suites SET status = $1, completed_count = $2, updated_at = NOW() WHERE id = $3`,
		status, completedCount, suiteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update suite status: %w", err)
	}
	return nil
}

// CreateBlueprints bulk-inserts one pending blueprint per selected type,
// preserving the selection order.
func (db *DB) CreateBlueprints(ctx context.Context, suiteID uuid.UUID, docTypes []string) ([]Blueprint, error) {
	blueprints := make([]Blueprint, 0, len(docTypes))
	for i, docType := range docTypes {
		var b Blueprint
		err := db.pool.QueryRow(ctx,
			`INSERT INTO blueprints (suite_id, doc_type, status, position)
			 VALUES ($1, $2, 'pending', $3)
			 RETURNING id, suite_id, doc_type, status, COALESCE(content, ''), error_message, position, created_at, updated_at`,
			suiteID, docType, i+1,
		).Scan(&b.ID, &b.SuiteID, &b.DocType, &b.Status, &b.Content, &b.ErrorMessage, &b.Position, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create blueprint %s: %w", docType, err)
		}
		blueprints = append(blueprints, b)
	}
	return blueprints, nil
}

// GetBlueprint retrieves a blueprint by ID. Returns (nil, nil) when absent.
func (db *DB) GetBlueprint(ctx context.Context, blueprintID uuid.UUID) (*Blueprint, error) {
	var b Blueprint
	err := db.pool.QueryRow(ctx,
		`SELECT id, suite_id, doc_type, status, COALESCE(content, ''), error_message, position, created_at, updated_at
		 FROM blueprints WHERE id = $1`,
		blueprintID,
	).Scan(&b.ID, &b.SuiteID, &b.DocType, &b.Status, &b.Content, &b.ErrorMessage, &b.Position, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blueprint: %w", err)
	}
	return &b, nil
}

// ListBlueprints returns a suite's blueprints in generation order.
func (db *DB) ListBlueprints(ctx context.Context, suiteID uuid.UUID) ([]Blueprint, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, suite_id, doc_type, status, COALESCE(content, ''), error_message, position, created_at, updated_at
		 FROM blueprints WHERE suite_id = $1 ORDER BY position`,
		suiteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blueprints: %w", err)
	}
	defer rows.Close()

	var blueprints []Blueprint
	for rows.Next() {
		var b Blueprint
		if err := rows.Scan(&b.ID, &b.SuiteID, &b.DocType, &b.Status, &b.Content, &b.ErrorMessage, &b.Position, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blueprint: %w", err)
		}
		blueprints = append(blueprints, b)
	}
	return blueprints, nil
}

// UpdateBlueprintStatus persists an item status transition. Content is
// stored on complete; errMsg on error.
func (db *DB) UpdateBlueprintStatus(ctx context.Context, blueprintID uuid.UUID, status BlueprintStatus, content string, errMsg *string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE blueprints
		 SET status = $1, content = COALESCE(NULLIF($2, ''), content), error_message = $3, updated_at = NOW()
		 WHERE id = $4`,
		status, content, errMsg, blueprintID,
	)
	if err != nil {
		return fmt.Errorf("failed to update blueprint status: %w", err)
	}
	return nil
}
