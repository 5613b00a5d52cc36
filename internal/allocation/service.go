package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/ledger"
	"github.com/paydown/paydown/internal/operation"
)

// Service is the allocation engine. It validates debits against available
// limits, offsets them against carried credit, and applies payments to
// outstanding debits in charge order. Each public operation runs as one
// atomic unit of work against the store; the service itself holds no state
// between calls.
type Service struct {
	store ledger.Store
}

// NewService builds the engine around an explicit store implementation.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// DebitInput captures a purchase or withdrawal request. Amount must be
// strictly negative; DueDate is carried through for installment purchases.
type DebitInput struct {
	AccountID int64
	Kind      operation.Kind
	Amount    decimal.Decimal
	DueDate   *time.Time
}

// PaymentInput captures a payment request. Amount must be strictly positive.
type PaymentInput struct {
	AccountID int64
	Amount    decimal.Decimal
}

// RecordDebit validates a debit against the limit that matches its kind
// plus any carried credit surplus, consumes the surplus first, persists the
// transaction, and decrements the limit by the portion the surplus did not
// cover. On any validation failure nothing is mutated.
func (s *Service) RecordDebit(ctx context.Context, input DebitInput) (ledger.Transaction, error) {
	if !input.Kind.Valid() || !input.Kind.IsDebit() {
		return ledger.Transaction{}, newError(KindInvalidInput, "operation type %q cannot be recorded as a debit", input.Kind)
	}
	if !input.Amount.IsNegative() {
		return ledger.Transaction{}, newError(KindInvalidInput, "purchases and withdrawals require a negative amount, got %s", input.Amount)
	}

	var result ledger.Transaction
	err := s.store.InAccountScope(ctx, input.AccountID, func(uow ledger.UnitOfWork) error {
		account, err := uow.Account(ctx)
		if err != nil {
			return err
		}

		carried := decimal.Zero
		open, found, err := uow.FindOpenCreditBalance(ctx)
		if err != nil {
			return err
		}
		if found {
			carried = open.Outstanding
		}

		limit := account.AvailableCreditLimit
		if input.Kind.IsWithdrawal() {
			limit = account.AvailableWithdrawalLimit
		}

		owed := input.Amount.Abs()
		if limit.Add(carried).LessThan(owed) {
			return newError(KindInsufficientLimit, "amount %s exceeds the available %s limit", owed, input.Kind)
		}

		// carried credit covers the debit before the limit is touched
		consumed := decimal.Min(owed, carried)
		if consumed.IsPositive() {
			if err := uow.UpdateTransactionOutstanding(ctx, open.ID, open.Outstanding.Sub(consumed)); err != nil {
				return err
			}
		}

		outstanding := input.Amount.Add(consumed)
		tx, err := uow.InsertTransaction(ctx, input.Kind, input.Amount, outstanding, input.DueDate)
		if err != nil {
			return err
		}

		if !outstanding.IsZero() {
			creditDelta, withdrawalDelta := limitDeltas(input.Kind, outstanding)
			if err := uow.AdjustLimits(ctx, creditDelta, withdrawalDelta); err != nil {
				return err
			}
		}

		result, err = uow.FindTransaction(ctx, tx.ID)
		return err
	})
	if err != nil {
		return ledger.Transaction{}, s.asEngineError(err)
	}
	return result, nil
}

// RecordPayment applies a payment to the account's outstanding debits in
// charge order, oldest first within a rank, crediting each matching limit
// as balances are paid down. Whatever remains is persisted as the payment's
// own outstanding balance and carried forward as a credit surplus. A
// payment is rejected while a previous surplus is still open.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (ledger.Transaction, error) {
	if !input.Amount.IsPositive() {
		return ledger.Transaction{}, newError(KindInvalidInput, "payments require a positive amount, got %s", input.Amount)
	}

	var result ledger.Transaction
	err := s.store.InAccountScope(ctx, input.AccountID, func(uow ledger.UnitOfWork) error {
		if _, err := uow.Account(ctx); err != nil {
			return err
		}

		if _, found, err := uow.FindOpenCreditBalance(ctx); err != nil {
			return err
		} else if found {
			return newError(KindPaymentNotAllowed, "a credit surplus is still open; it must be consumed before another payment")
		}

		unsettled, err := uow.ListUnsettled(ctx)
		if err != nil {
			return err
		}

		remaining := input.Amount
		for _, tx := range unsettled {
			if !remaining.IsPositive() {
				break
			}

			if tx.Outstanding.IsPositive() {
				// stray unresolved credit: fold it into the payment, it
				// never drew on a limit
				remaining = remaining.Add(tx.Outstanding)
				if err := uow.UpdateTransactionOutstanding(ctx, tx.ID, decimal.Zero); err != nil {
					return err
				}
				continue
			}

			owed := tx.Outstanding.Neg()
			settle := decimal.Min(owed, remaining)
			if err := uow.UpdateTransactionOutstanding(ctx, tx.ID, tx.Outstanding.Add(settle)); err != nil {
				return err
			}
			creditDelta, withdrawalDelta := limitDeltas(tx.Kind, settle)
			if err := uow.AdjustLimits(ctx, creditDelta, withdrawalDelta); err != nil {
				return err
			}
			remaining = remaining.Sub(settle)
		}

		payment, err := uow.InsertTransaction(ctx, operation.Payment, input.Amount, remaining, nil)
		if err != nil {
			return err
		}

		result, err = uow.FindTransaction(ctx, payment.ID)
		return err
	})
	if err != nil {
		return ledger.Transaction{}, s.asEngineError(err)
	}
	return result, nil
}

// RecordPayments applies a batch of payments in order. Each payment is its
// own atomic unit; processing stops at the first failure and earlier
// payments stand.
func (s *Service) RecordPayments(ctx context.Context, inputs []PaymentInput) ([]ledger.Transaction, error) {
	transactions := make([]ledger.Transaction, 0, len(inputs))
	for _, input := range inputs {
		tx, err := s.RecordPayment(ctx, input)
		if err != nil {
			return transactions, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// GetAccount returns the account's current limits.
func (s *Service) GetAccount(ctx context.Context, accountID int64) (ledger.Account, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return ledger.Account{}, s.asEngineError(err)
	}
	return account, nil
}

// ListTransactions returns the ledger for an account, or for every account
// when accountID is zero.
func (s *Service) ListTransactions(ctx context.Context, accountID int64) ([]ledger.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, s.asEngineError(err)
	}
	return txs, nil
}

// limitDeltas maps a kind to the limit category it draws on.
func limitDeltas(kind operation.Kind, delta decimal.Decimal) (creditDelta, withdrawalDelta decimal.Decimal) {
	if kind.IsWithdrawal() {
		return decimal.Zero, delta
	}
	return delta, decimal.Zero
}

// asEngineError normalizes store-level failures into the engine taxonomy
// while passing already-classified errors through untouched.
func (s *Service) asEngineError(err error) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return newError(KindAccountNotFound, "the referenced account does not exist")
	}
	if errors.Is(err, ledger.ErrTransactionNotFound) {
		return newError(KindStoreFailure, "a transaction disappeared mid-operation")
	}
	return storeFailure(err)
}
