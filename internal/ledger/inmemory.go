package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

type inMemoryStore struct {
	mu           sync.Mutex
	accountLocks map[int64]*sync.Mutex
	accounts     map[int64]Account
	transactions map[int64]Transaction
	nextAccount  int64
	nextTx       int64
	now          func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit
// tests and as the dev fallback when no database is configured.
func NewInMemory() Store {
	return &inMemoryStore{
		accountLocks: make(map[int64]*sync.Mutex),
		accounts:     make(map[int64]Account),
		transactions: make(map[int64]Transaction),
		now:          time.Now,
	}
}

func (s *inMemoryStore) CreateAccount(_ context.Context, creditLimit, withdrawalLimit decimal.Decimal) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccount++
	account := Account{
		ID:                       s.nextAccount,
		AvailableCreditLimit:     creditLimit,
		AvailableWithdrawalLimit: withdrawalLimit,
	}
	s.accounts[account.ID] = account
	s.accountLocks[account.ID] = &sync.Mutex{}
	return account, nil
}

func (s *inMemoryStore) GetAccount(_ context.Context, accountID int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *inMemoryStore) ListAccounts(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *inMemoryStore) FindTransaction(_ context.Context, transactionID int64) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[transactionID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *inMemoryStore) ListTransactions(_ context.Context, accountID int64) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := make([]Transaction, 0)
	for _, tx := range s.transactions {
		if accountID == 0 || tx.AccountID == accountID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

// InAccountScope serializes units of work per account with a dedicated
// mutex and restores the pre-scope state wholesale when fn fails.
func (s *inMemoryStore) InAccountScope(ctx context.Context, accountID int64, fn func(uow UnitOfWork) error) error {
	s.mu.Lock()
	lock, ok := s.accountLocks[accountID]
	s.mu.Unlock()
	if !ok {
		return ErrAccountNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	snapshot := s.snapshot(accountID)
	uow := &inMemoryUnitOfWork{store: s, accountID: accountID}
	if err := fn(uow); err != nil {
		s.restore(accountID, snapshot)
		return err
	}
	return nil
}

type accountSnapshot struct {
	account      Account
	transactions map[int64]Transaction
}

func (s *inMemoryStore) snapshot(accountID int64) accountSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := accountSnapshot{
		account:      s.accounts[accountID],
		transactions: make(map[int64]Transaction),
	}
	for id, tx := range s.transactions {
		if tx.AccountID == accountID {
			snap.transactions[id] = tx
		}
	}
	return snap
}

func (s *inMemoryStore) restore(accountID int64, snap accountSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = snap.account
	for id, tx := range s.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if _, existed := snap.transactions[id]; !existed {
			delete(s.transactions, id)
		}
	}
	for id, tx := range snap.transactions {
		s.transactions[id] = tx
	}
}

type inMemoryUnitOfWork struct {
	store     *inMemoryStore
	accountID int64
}

func (u *inMemoryUnitOfWork) Account(ctx context.Context) (Account, error) {
	return u.store.GetAccount(ctx, u.accountID)
}

func (u *inMemoryUnitOfWork) AdjustLimits(_ context.Context, creditDelta, withdrawalDelta decimal.Decimal) error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[u.accountID]
	if !ok {
		return ErrAccountNotFound
	}
	account.AvailableCreditLimit = account.AvailableCreditLimit.Add(creditDelta)
	account.AvailableWithdrawalLimit = account.AvailableWithdrawalLimit.Add(withdrawalDelta)
	s.accounts[u.accountID] = account
	return nil
}

func (u *inMemoryUnitOfWork) InsertTransaction(_ context.Context, kind operation.Kind, amount, outstanding decimal.Decimal, dueDate *time.Time) (Transaction, error) {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	tx := Transaction{
		ID:          s.nextTx,
		AccountID:   u.accountID,
		Kind:        kind,
		Amount:      amount,
		Outstanding: outstanding,
		EventDate:   s.now().UTC(),
		DueDate:     dueDate,
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (u *inMemoryUnitOfWork) FindOpenCreditBalance(_ context.Context) (Transaction, bool, error) {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.AccountID == u.accountID && tx.Kind == operation.Payment && tx.Outstanding.IsPositive() {
			return tx, true, nil
		}
	}
	return Transaction{}, false, nil
}

func (u *inMemoryUnitOfWork) ListUnsettled(_ context.Context) ([]Transaction, error) {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := make([]Transaction, 0)
	for _, tx := range s.transactions {
		if tx.AccountID == u.accountID && !tx.Outstanding.IsZero() {
			txs = append(txs, tx)
		}
	}
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.Kind.ChargeOrder() != b.Kind.ChargeOrder() {
			return a.Kind.ChargeOrder() < b.Kind.ChargeOrder()
		}
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		return a.ID < b.ID
	})
	return txs, nil
}

func (u *inMemoryUnitOfWork) UpdateTransactionOutstanding(_ context.Context, transactionID int64, outstanding decimal.Decimal) error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[transactionID]
	if !ok || tx.AccountID != u.accountID {
		return ErrTransactionNotFound
	}
	tx.Outstanding = outstanding
	s.transactions[transactionID] = tx
	return nil
}

func (u *inMemoryUnitOfWork) FindTransaction(ctx context.Context, transactionID int64) (Transaction, error) {
	return u.store.FindTransaction(ctx, transactionID)
}
