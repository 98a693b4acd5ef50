package db

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a resource does not exist or the caller does not
// own it. Ownership failures are deliberately collapsed into NotFound so the
// API does not leak which resources exist.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates a required input is missing or in the wrong
// state before a batch is started. No records are created when it is raised.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
