package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateConversation starts a new interview conversation for a project.
func (db *DB) CreateConversation(ctx context.Context, projectID, userID uuid.UUID, initialDescription string) (*Conversation, error) {
	var c Conversation
	err := db.pool.QueryRow(ctx,
		`INSERT INTO conversations (project_id, user_id, initial_description)
		 VALUES ($1, $2, $3)
		 RETURNING id, project_id, user_id, initial_description, question_count, completed, created_at, updated_at`,
		projectID, userID, initialDescription,
	).Scan(&c.ID, &c.ProjectID, &c.UserID, &c.InitialDescription, &c.QuestionCount, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &c, nil
}

// GetConversation retrieves a conversation by ID. Returns (nil, nil) when absent.
func (db *DB) GetConversation(ctx context.Context, conversationID uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := db.pool.QueryRow(ctx,
		`SELECT id, project_id, user_id, initial_description, question_count, completed, created_at, updated_at
		 FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&c.ID, &c.ProjectID, &c.UserID, &c.InitialDescription, &c.QuestionCount, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &c, nil
}

// FindCompletedConversation returns the completed interview for a project,
// or (nil, nil) when the interview has not finished yet.
func (db *DB) FindCompletedConversation(ctx context.Context, projectID uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := db.pool.QueryRow(ctx,
		`SELECT id, project_id, user_id, initial_description, question_count, completed, created_at, updated_at
		 FROM conversations
		 WHERE project_id = $1 AND completed = TRUE
		 ORDER BY created_at DESC
		 LIMIT 1`,
		projectID,
	).Scan(&c.ID, &c.ProjectID, &c.UserID, &c.InitialDescription, &c.QuestionCount, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find completed conversation: %w", err)
	}
	return &c, nil
}

// AppendTurn persists one conversation turn at the next position.
func (db *DB) AppendTurn(ctx context.Context, conversationID uuid.UUID, role TurnRole, content, category string) (*ConversationTurn, error) {
	var t ConversationTurn
	err := db.pool.QueryRow(ctx,
		`INSERT INTO conversation_turns (conversation_id, role, content, category, position)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(position), 0) + 1
		 FROM conversation_turns WHERE conversation_id = $1
		 RETURNING id, conversation_id, role, content, COALESCE(category, ''), position, created_at`,
		conversationID, role, content, nullIfEmpty(category),
	).Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.Category, &t.Position, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}
	return &t, nil
}

// ListTurns returns all turns of a conversation in order.
func (db *DB) ListTurns(ctx context.Context, conversationID uuid.UUID) ([]ConversationTurn, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, COALESCE(category, ''), position, created_at
		 FROM conversation_turns
		 WHERE conversation_id = $1
		 ORDER BY position`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.Category, &t.Position, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// RecordAssistantTurn increments the question counter and marks the
// conversation complete when the interview has finished.
func (db *DB) RecordAssistantTurn(ctx context.Context, conversationID uuid.UUID, completed bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE conversations
		 SET question_count = question_count + 1, completed = completed OR $1, updated_at = NOW()
		 WHERE id = $2`,
		completed, conversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to record assistant turn: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
