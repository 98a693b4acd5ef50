package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/blueprint-engine/internal/generation"
)

const sequenceColumns = `id, project_id, suite_id, status, total_count, completed_count, created_at, updated_at`

func scanSequence(row pgx.Row) (*Sequence, error) {
	var s Sequence
	err := row.Scan(&s.ID, &s.ProjectID, &s.SuiteID, &s.Status, &s.TotalCount, &s.CompletedCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSequence inserts a new generating sequence unless the project
// already has an active one, using the same atomic insert-if-absent pattern
// as CreateSuite. Returns created=false when an active sequence exists.
func (db *DB) CreateSequence(ctx context.Context, projectID, suiteID uuid.UUID) (*Sequence, bool, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO sequences (project_id, suite_id, status)
		 VALUES ($1, $2, 'generating')
		 ON CONFLICT (project_id) WHERE status IN ('generating', 'complete', 'partial') DO NOTHING
		 RETURNING `+sequenceColumns,
		projectID, suiteID,
	)
	s, err := scanSequence(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to create sequence: %w", err)
	}
	return s, true, nil
}

// FindSequenceByProject returns the project's most recent sequence, or
// (nil, nil) when none exists.
func (db *DB) FindSequenceByProject(ctx context.Context, projectID uuid.UUID) (*Sequence, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sequenceColumns+` FROM sequences
		 WHERE project_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		projectID,
	)
	s, err := scanSequence(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sequence: %w", err)
	}
	return s, nil
}

// GetSequence retrieves a sequence by ID. Returns (nil, nil) when absent.
func (db *DB) GetSequence(ctx context.Context, sequenceID uuid.UUID) (*Sequence, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+sequenceColumns+` FROM sequences WHERE id = $1`, sequenceID)
	s, err := scanSequence(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sequence: %w", err)
	}
	return s, nil
}

// UpdateSequenceStatus persists the derived batch status and prompt counts.
func (db *DB) UpdateSequenceStatus(ctx context.Context, sequenceID uuid.UUID, status generation.BatchStatus, totalCount, completedCount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE sequences SET status = $1, total_count = $2, completed_count = $3, updated_at = NOW() WHERE id = $4`,
		status, totalCount, completedCount, sequenceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sequence status: %w", err)
	}
	return nil
}

const promptColumns = `id, sequence_id, sequence_number, title, category, status, prerequisites, COALESCE(content, ''), created_at, updated_at`

func scanPrompt(row pgx.Row) (*Prompt, error) {
	var p Prompt
	err := row.Scan(&p.ID, &p.SequenceID, &p.SequenceNumber, &p.Title, &p.Category, &p.Status, &p.Prerequisites, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPrompt persists one generated prompt with its running sequence
// number. Prompts are append-only; resumed runs extend the numbering.
func (db *DB) InsertPrompt(ctx context.Context, p *Prompt) (*Prompt, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO prompts (sequence_id, sequence_number, title, category, status, prerequisites, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+promptColumns,
		p.SequenceID, p.SequenceNumber, p.Title, p.Category, p.Status, p.Prerequisites, p.Content,
	)
	inserted, err := scanPrompt(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert prompt %d: %w", p.SequenceNumber, err)
	}
	return inserted, nil
}

// GetPrompt retrieves a prompt by ID. Returns (nil, nil) when absent.
func (db *DB) GetPrompt(ctx context.Context, promptID uuid.UUID) (*Prompt, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, promptID)
	p, err := scanPrompt(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return p, nil
}

// GetPromptByNumber retrieves a prompt by sequence number.
// Returns (nil, nil) when absent.
func (db *DB) GetPromptByNumber(ctx context.Context, sequenceID uuid.UUID, number int) (*Prompt, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE sequence_id = $1 AND sequence_number = $2`,
		sequenceID, number,
	)
	p, err := scanPrompt(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt by number: %w", err)
	}
	return p, nil
}

// ListPrompts returns a sequence's prompts ordered by sequence number.
func (db *DB) ListPrompts(ctx context.Context, sequenceID uuid.UUID) ([]Prompt, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE sequence_id = $1 ORDER BY sequence_number`,
		sequenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		var p Prompt
		if err := rows.Scan(&p.ID, &p.SequenceID, &p.SequenceNumber, &p.Title, &p.Category, &p.Status, &p.Prerequisites, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// CountPrompts returns the number of prompts already persisted for a
// sequence, which is also the highest assigned sequence number.
func (db *DB) CountPrompts(ctx context.Context, sequenceID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prompts WHERE sequence_id = $1`,
		sequenceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prompts: %w", err)
	}
	return count, nil
}

// UnlockPromptIfPending flips a pending prompt to unlocked in one guarded
// update, so an unlock racing a concurrent client transition on the same
// prompt can never clobber it. Returns whether the row changed.
func (db *DB) UnlockPromptIfPending(ctx context.Context, promptID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE prompts SET status = 'unlocked', updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		promptID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to unlock prompt: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdatePromptStatus persists a client-driven prompt status transition.
func (db *DB) UpdatePromptStatus(ctx context.Context, promptID uuid.UUID, status PromptStatus) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE prompts SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, promptID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prompt status: %w", err)
	}
	return nil
}
