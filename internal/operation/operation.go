package operation

import "fmt"

// Kind identifies the business operation behind a ledger transaction.
type Kind string

const (
	Withdrawal          Kind = "withdrawal"
	CashPurchase        Kind = "cash_purchase"
	InstallmentPurchase Kind = "installment_purchase"
	Payment             Kind = "payment"
)

// chargeOrder ranks kinds for settlement: lower values are paid down first.
// Payments share the withdrawal rank but are never themselves settled by the
// waterfall; the rank only matters when one shows up in an ordered scan.
var chargeOrder = map[Kind]int{
	Withdrawal:          0,
	Payment:             0,
	InstallmentPurchase: 1,
	CashPurchase:        2,
}

// ChargeOrder returns the settlement rank for the kind.
func (k Kind) ChargeOrder() int {
	return chargeOrder[k]
}

// IsDebit reports whether the kind consumes account limit.
func (k Kind) IsDebit() bool {
	switch k {
	case Withdrawal, CashPurchase, InstallmentPurchase:
		return true
	}
	return false
}

// IsWithdrawal reports whether the kind draws on the withdrawal limit
// rather than the credit limit.
func (k Kind) IsWithdrawal() bool {
	return k == Withdrawal
}

// Valid reports whether the kind is part of the catalog.
func (k Kind) Valid() bool {
	_, ok := chargeOrder[k]
	return ok
}

// Parse converts a wire value into a catalog Kind.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown operation type %q", s)
	}
	return k, nil
}
