package credit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records ledger calls against an in-memory balance.
type fakeStore struct {
	balance float64
	deducts []float64
	refunds []float64
	failErr error
}

func (s *fakeStore) DeductCredits(_ context.Context, _ uuid.UUID, amount float64, _ string) (float64, bool, error) {
	if s.failErr != nil {
		return 0, false, s.failErr
	}
	if s.balance < amount {
		return s.balance, false, nil
	}
	s.balance -= amount
	s.deducts = append(s.deducts, amount)
	return s.balance, true, nil
}

func (s *fakeStore) RefundCredits(_ context.Context, _ uuid.UUID, amount float64, _ string) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.balance += amount
	s.refunds = append(s.refunds, amount)
	return nil
}

func TestDeductReturnsRemainingBalance(t *testing.T) {
	store := &fakeStore{balance: 25}
	ledger := NewLedger(store)

	balance, err := ledger.Deduct(context.Background(), uuid.New(), 10, ReasonSuiteGeneration)
	require.NoError(t, err)
	assert.Equal(t, 15.0, balance)
	assert.Equal(t, []float64{10}, store.deducts)
}

func TestDeductFractionalAmount(t *testing.T) {
	store := &fakeStore{balance: 1}
	ledger := NewLedger(store)

	balance, err := ledger.Deduct(context.Background(), uuid.New(), 0.5, ReasonInterviewMessage)
	require.NoError(t, err)
	assert.Equal(t, 0.5, balance)
}

func TestDeductInsufficientBalance(t *testing.T) {
	store := &fakeStore{balance: 5}
	ledger := NewLedger(store)

	_, err := ledger.Deduct(context.Background(), uuid.New(), 10, ReasonSuiteGeneration)
	require.Error(t, err)

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5.0, insufficient.Balance)
	assert.Equal(t, 10.0, insufficient.Required)

	// No deduction was recorded.
	assert.Empty(t, store.deducts)
	assert.Equal(t, 5.0, store.balance)
}

func TestDeductWrapsStoreError(t *testing.T) {
	store := &fakeStore{failErr: errors.New("connection refused")}
	ledger := NewLedger(store)

	_, err := ledger.Deduct(context.Background(), uuid.New(), 10, ReasonSuiteGeneration)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deduct")
}

func TestRefundRestoresBalance(t *testing.T) {
	store := &fakeStore{balance: 0}
	ledger := NewLedger(store)

	require.NoError(t, ledger.Refund(context.Background(), uuid.New(), 10, ReasonSuiteGeneration))
	assert.Equal(t, 10.0, store.balance)
	assert.Equal(t, []float64{10}, store.refunds)
}

func TestInsufficientCreditsErrorMessage(t *testing.T) {
	err := &InsufficientCreditsError{Balance: 2.5, Required: 10}
	assert.Equal(t, "insufficient credits: have 2.50, need 10.00", err.Error())
}
