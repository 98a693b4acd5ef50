// Package server provides the HTTP REST API for the blueprint engine.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/blueprint-engine/internal/credit"
	"github.com/jonathan/blueprint-engine/internal/db"
)

// ErrEmailAlreadyExists indicates the email is already registered.
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// HTTPStatus maps a service error to its HTTP status code. Insufficient
// credits is 402 so clients can distinguish it from validation failures.
func HTTPStatus(err error) int {
	var (
		emailExists  *ErrEmailAlreadyExists
		badCreds     *ErrInvalidCredentials
		insufficient *credit.InsufficientCreditsError
		notFound     *db.NotFoundError
		validation   *db.ValidationError
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
