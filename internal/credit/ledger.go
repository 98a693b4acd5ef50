// Package credit provides the usage-metering ledger: atomic debits against a
// per-user balance and compensating refunds.
package credit

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Deduction reason constants used by the workflows.
const (
	ReasonSuiteGeneration    = "suite_generation"
	ReasonSequenceGeneration = "sequence_generation"
	ReasonInterviewMessage   = "interview_message"
)

// Costs holds the credit price of each billable operation. Fractional
// amounts are allowed.
type Costs struct {
	Suite    float64 `json:"suite"`
	Sequence float64 `json:"sequence"`
	Message  float64 `json:"message"`
}

// DefaultCosts returns the standard pricing.
func DefaultCosts() Costs {
	return Costs{Suite: 10, Sequence: 15, Message: 0.5}
}

// Store is the persistence contract the ledger requires. DeductCredits must
// perform check-and-decrement as a single atomic step; a read followed by a
// separate write would overdraw under concurrent calls.
type Store interface {
	DeductCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) (balance float64, ok bool, err error)
	RefundCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) error
}

// InsufficientCreditsError is the admission failure for a billable
// operation. It carries the current balance so callers can report the
// shortfall. No records are created when it is raised.
type InsufficientCreditsError struct {
	Balance  float64
	Required float64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %.2f, need %.2f", e.Balance, e.Required)
}

// Ledger meters usage against per-user credit balances.
type Ledger struct {
	store Store
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Deduct charges the account, failing with InsufficientCreditsError when the
// balance does not cover the amount. Returns the remaining balance.
func (l *Ledger) Deduct(ctx context.Context, userID uuid.UUID, amount float64, reason string) (float64, error) {
	balance, ok, err := l.store.DeductCredits(ctx, userID, amount, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to deduct %.2f credits: %w", amount, err)
	}
	if !ok {
		return balance, &InsufficientCreditsError{Balance: balance, Required: amount}
	}
	log.Printf("[credit] deducted %.2f from %s (%s), balance %.2f", amount, userID, reason, balance)
	return balance, nil
}

// Refund unconditionally credits the account back. The workflows call this
// at most once per batch, only when a charged batch produced zero usable
// output.
func (l *Ledger) Refund(ctx context.Context, userID uuid.UUID, amount float64, reason string) error {
	if err := l.store.RefundCredits(ctx, userID, amount, reason); err != nil {
		return fmt.Errorf("failed to refund %.2f credits: %w", amount, err)
	}
	log.Printf("[credit] refunded %.2f to %s (%s)", amount, userID, reason)
	return nil
}
