package account

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/ledger"
)

// ErrInvalidLimit indicates a provisioning request with a negative limit.
var ErrInvalidLimit = errors.New("limits must be non-negative")

// Service provisions accounts and adjusts their available limits. Limit
// adjustments run inside an account scope so they never interleave with an
// in-flight allocation on the same account.
type Service struct {
	store ledger.Store
}

// NewService builds an account service over the store.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// CreateInput captures the initial limits for a new account.
type CreateInput struct {
	CreditLimit     decimal.Decimal
	WithdrawalLimit decimal.Decimal
}

// Create provisions an account with its initial limits.
func (s *Service) Create(ctx context.Context, input CreateInput) (ledger.Account, error) {
	if input.CreditLimit.IsNegative() || input.WithdrawalLimit.IsNegative() {
		return ledger.Account{}, ErrInvalidLimit
	}
	return s.store.CreateAccount(ctx, input.CreditLimit, input.WithdrawalLimit)
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, accountID int64) (ledger.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// List returns every account with its current limits.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx)
}

// AdjustInput carries deltas to add to an account's available limits. A nil
// delta leaves that limit untouched.
type AdjustInput struct {
	CreditDelta     *decimal.Decimal
	WithdrawalDelta *decimal.Decimal
}

// Adjust adds the provided deltas to the account's limits and returns the
// updated account.
func (s *Service) Adjust(ctx context.Context, accountID int64, input AdjustInput) (ledger.Account, error) {
	creditDelta := decimal.Zero
	if input.CreditDelta != nil {
		creditDelta = *input.CreditDelta
	}
	withdrawalDelta := decimal.Zero
	if input.WithdrawalDelta != nil {
		withdrawalDelta = *input.WithdrawalDelta
	}

	var updated ledger.Account
	err := s.store.InAccountScope(ctx, accountID, func(uow ledger.UnitOfWork) error {
		if err := uow.AdjustLimits(ctx, creditDelta, withdrawalDelta); err != nil {
			return err
		}
		var err error
		updated, err = uow.Account(ctx)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return updated, nil
}
