package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateUser creates a new user with a starting credit balance.
func (db *DB) CreateUser(ctx context.Context, email, name, passwordHash string, startingCredits float64) (*User, error) {
	var user User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, credits)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, name, password_hash, credits, created_at, updated_at`,
		email, name, passwordHash, startingCredits,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Credits, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUser retrieves a user by ID. Returns (nil, nil) when absent.
func (db *DB) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, credits, created_at, updated_at
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Credits, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, credits, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Credits, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// DeductCredits atomically decrements the balance if it covers the amount.
// Check-and-decrement is a single guarded UPDATE, so concurrent deductions
// for the same account cannot overdraw. Returns the post-deduction balance
// and whether the deduction happened; when it did not, the returned balance
// is the current one so callers can report the shortfall.
func (db *DB) DeductCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) (float64, bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin deduction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var balance float64
	err = tx.QueryRow(ctx,
		`UPDATE users SET credits = credits - $1, updated_at = NOW()
		 WHERE id = $2 AND credits >= $1
		 RETURNING credits`,
		amount, userID,
	).Scan(&balance)
	if err == pgx.ErrNoRows {
		// Insufficient balance (or unknown user): report the current balance.
		err = db.pool.QueryRow(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance)
		if err != nil {
			if err == pgx.ErrNoRows {
				return 0, false, &NotFoundError{Resource: "user", ID: userID}
			}
			return 0, false, fmt.Errorf("failed to read balance: %w", err)
		}
		return balance, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to deduct credits: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credit_transactions (user_id, amount, reason) VALUES ($1, $2, $3)`,
		userID, -amount, reason,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record deduction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit deduction: %w", err)
	}
	return balance, true, nil
}

// RefundCredits unconditionally increments the balance. Idempotency is the
// caller's responsibility; the workflows call this at most once per batch.
func (db *DB) RefundCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin refund: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $1, updated_at = NOW() WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to refund credits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "user", ID: userID}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credit_transactions (user_id, amount, reason) VALUES ($1, $2, $3)`,
		userID, amount, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	return tx.Commit(ctx)
}
