package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

// Account tracks the limits still available for new debits. Limits shrink
// when a debit is recorded and grow back as payments settle it, so at any
// consistent point limits plus open debit balances equal the provisioned
// totals.
type Account struct {
	ID                       int64           `json:"account_id"`
	AvailableCreditLimit     decimal.Decimal `json:"available_credit_limit"`
	AvailableWithdrawalLimit decimal.Decimal `json:"available_withdrawal_limit"`
}

// Transaction is a single ledger entry. Amount is the original signed value
// as requested (negative for debits, positive for payments) and never
// changes. Outstanding is the unsettled portion: it starts at the
// post-offset value and moves toward zero as allocations are applied; zero
// means fully settled.
type Transaction struct {
	ID          int64           `json:"transaction_id"`
	AccountID   int64           `json:"account_id"`
	Kind        operation.Kind  `json:"operation_type"`
	Amount      decimal.Decimal `json:"amount"`
	Outstanding decimal.Decimal `json:"balance"`
	EventDate   time.Time       `json:"event_date"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}

// Settled reports whether the transaction has no unsettled remainder.
func (t Transaction) Settled() bool {
	return t.Outstanding.IsZero()
}
