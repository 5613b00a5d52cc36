package operation

import "testing"

func TestChargeOrderRanksWithdrawalsFirst(t *testing.T) {
	if Withdrawal.ChargeOrder() >= InstallmentPurchase.ChargeOrder() {
		t.Fatalf("withdrawals must settle before installment purchases")
	}
	if InstallmentPurchase.ChargeOrder() >= CashPurchase.ChargeOrder() {
		t.Fatalf("installment purchases must settle before cash purchases")
	}
	if Payment.ChargeOrder() != Withdrawal.ChargeOrder() {
		t.Fatalf("payments share the withdrawal rank, got %d", Payment.ChargeOrder())
	}
}

func TestIsDebit(t *testing.T) {
	for _, k := range []Kind{Withdrawal, CashPurchase, InstallmentPurchase} {
		if !k.IsDebit() {
			t.Fatalf("%s should be a debit kind", k)
		}
	}
	if Payment.IsDebit() {
		t.Fatalf("payment is not a debit kind")
	}
}

func TestParse(t *testing.T) {
	k, err := Parse("cash_purchase")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if k != CashPurchase {
		t.Fatalf("expected cash_purchase, got %s", k)
	}

	if _, err := Parse("chargeback"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
