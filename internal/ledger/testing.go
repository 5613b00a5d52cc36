package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

// SetClock is a test helper that pins the event-date clock of an in-memory
// store so tests can control chronological ordering.
func SetClock(s Store, now func() time.Time) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.now = now
	}
}

// SeedTransaction is a test helper that inserts a transaction with an
// explicit event date into an in-memory store, bypassing the engine.
func SeedTransaction(s Store, accountID int64, kind operation.Kind, amount, outstanding decimal.Decimal, eventDate time.Time) Transaction {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return Transaction{}
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.nextTx++
	tx := Transaction{
		ID:          mem.nextTx,
		AccountID:   accountID,
		Kind:        kind,
		Amount:      amount,
		Outstanding: outstanding,
		EventDate:   eventDate.UTC(),
	}
	mem.transactions[tx.ID] = tx
	return tx
}
