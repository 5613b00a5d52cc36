package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

var (
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound indicates the referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Store is the persistence contract consumed by the allocation engine and
// the account facade. Implementations assign ids and event dates.
type Store interface {
	CreateAccount(ctx context.Context, creditLimit, withdrawalLimit decimal.Decimal) (Account, error)
	GetAccount(ctx context.Context, accountID int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	FindTransaction(ctx context.Context, transactionID int64) (Transaction, error)
	// ListTransactions returns the full ledger for an account, or for all
	// accounts when accountID is zero, oldest first.
	ListTransactions(ctx context.Context, accountID int64) ([]Transaction, error)
	// InAccountScope runs fn as one atomic unit of work holding exclusive
	// access to the account. The account must exist. If fn returns an
	// error every mutation made through the unit of work is discarded.
	// Scopes on different accounts may run in parallel.
	InAccountScope(ctx context.Context, accountID int64, fn func(uow UnitOfWork) error) error
}

// UnitOfWork exposes the mutations available inside an account scope. All
// reads observe a consistent snapshot including the scope's own writes.
type UnitOfWork interface {
	// Account returns the scoped account's current state.
	Account(ctx context.Context) (Account, error)
	// AdjustLimits adds the deltas (either may be negative or zero) to the
	// account's available limits.
	AdjustLimits(ctx context.Context, creditDelta, withdrawalDelta decimal.Decimal) error
	// InsertTransaction persists a new transaction for the scoped account,
	// assigning its id and event date.
	InsertTransaction(ctx context.Context, kind operation.Kind, amount, outstanding decimal.Decimal, dueDate *time.Time) (Transaction, error)
	// FindOpenCreditBalance returns the payment transaction with a positive
	// outstanding balance, if one exists. At most one ever does.
	FindOpenCreditBalance(ctx context.Context) (Transaction, bool, error)
	// ListUnsettled returns every transaction with a non-zero outstanding
	// balance ordered by charge order ascending, then event date ascending,
	// then id ascending.
	ListUnsettled(ctx context.Context) ([]Transaction, error)
	UpdateTransactionOutstanding(ctx context.Context, transactionID int64, outstanding decimal.Decimal) error
	FindTransaction(ctx context.Context, transactionID int64) (Transaction, error)
}
