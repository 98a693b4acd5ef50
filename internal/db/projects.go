package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateProject creates a project owned by the given user.
func (db *DB) CreateProject(ctx context.Context, userID uuid.UUID, name, projectType string, features []string) (*Project, error) {
	var p Project
	err := db.pool.QueryRow(ctx,
		`INSERT INTO projects (user_id, name, project_type, features)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, name, project_type, features, created_at`,
		userID, name, projectType, features,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.ProjectType, &p.Features, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

// GetProject retrieves a project by ID. Returns (nil, nil) when absent.
func (db *DB) GetProject(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	var p Project
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, name, project_type, features, created_at
		 FROM projects WHERE id = $1`,
		projectID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.ProjectType, &p.Features, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}
