package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/blueprint-engine/internal/config"
	"github.com/jonathan/blueprint-engine/internal/db"
)

// AccountStore is the persistence contract for account operations.
type AccountStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string, startingCredits float64) (*db.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
}

// UserService provides business logic for account registration and login.
type UserService struct {
	store          AccountStore
	passwordConfig *config.PasswordConfig
	signupCredits  float64
}

// NewUserService creates a new UserService with the given dependencies.
func NewUserService(store AccountStore, passwordConfig *config.PasswordConfig, signupCredits float64) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
		signupCredits:  signupCredits,
	}
}

// Register creates a new account seeded with the signup credit balance.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*db.User, error) {
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, name, passwordHash, s.signupCredits)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user. An unknown email and a wrong password return
// the same generic error.
func (s *UserService) Login(ctx context.Context, email, password string) (*db.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// Get returns an account by ID.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*db.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &db.NotFoundError{Resource: "user", ID: userID}
	}
	return user, nil
}
