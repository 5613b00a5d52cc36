// Package ledger's Postgres store expects the following tables:
//
//	accounts(account_id BIGSERIAL PRIMARY KEY,
//	         available_credit_limit NUMERIC NOT NULL,
//	         available_withdrawal_limit NUMERIC NOT NULL)
//	transactions(transaction_id BIGSERIAL PRIMARY KEY,
//	             account_id BIGINT NOT NULL REFERENCES accounts,
//	             operation_type TEXT NOT NULL,
//	             amount NUMERIC NOT NULL,
//	             balance NUMERIC NOT NULL,
//	             event_date TIMESTAMPTZ NOT NULL DEFAULT now(),
//	             due_date TIMESTAMPTZ)
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paydown/paydown/internal/operation"
)

// PostgresStore persists accounts and transactions in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const transactionColumns = `transaction_id, account_id, operation_type, amount, balance, event_date, due_date`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var kind string
	if err := row.Scan(&tx.ID, &tx.AccountID, &kind, &tx.Amount, &tx.Outstanding, &tx.EventDate, &tx.DueDate); err != nil {
		return Transaction{}, err
	}
	tx.Kind = operation.Kind(kind)
	tx.EventDate = tx.EventDate.UTC()
	return tx, nil
}

// CreateAccount inserts an account with its initial limits.
func (s *PostgresStore) CreateAccount(ctx context.Context, creditLimit, withdrawalLimit decimal.Decimal) (Account, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO accounts (available_credit_limit, available_withdrawal_limit)
        VALUES ($1, $2)
        RETURNING account_id, available_credit_limit, available_withdrawal_limit`, creditLimit, withdrawalLimit)
	var account Account
	if err := row.Scan(&account.ID, &account.AvailableCreditLimit, &account.AvailableWithdrawalLimit); err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetAccount fetches an account by id.
func (s *PostgresStore) GetAccount(ctx context.Context, accountID int64) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT account_id, available_credit_limit, available_withdrawal_limit
        FROM accounts WHERE account_id = $1`, accountID)
	var account Account
	if err := row.Scan(&account.ID, &account.AvailableCreditLimit, &account.AvailableWithdrawalLimit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

// ListAccounts returns every account ordered by id.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.Query(ctx, `SELECT account_id, available_credit_limit, available_withdrawal_limit
        FROM accounts ORDER BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.ID, &account.AvailableCreditLimit, &account.AvailableWithdrawalLimit); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// FindTransaction fetches a transaction by id.
func (s *PostgresStore) FindTransaction(ctx context.Context, transactionID int64) (Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return tx, err
}

// ListTransactions returns the ledger for one account, or for all accounts
// when accountID is zero, oldest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, accountID int64) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	args := []any{}
	if accountID != 0 {
		query += ` WHERE account_id = $1`
		args = append(args, accountID)
	}
	query += ` ORDER BY transaction_id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// InAccountScope runs fn inside a database transaction holding a row lock
// on the account, so concurrent units of work on the same account serialize
// while other accounts proceed in parallel. Any error rolls everything back.
func (s *PostgresStore) InAccountScope(ctx context.Context, accountID int64, fn func(uow UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT account_id FROM accounts WHERE account_id = $1 FOR UPDATE`, accountID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return err
	}

	if err := fn(&postgresUnitOfWork{tx: tx, accountID: accountID}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type postgresUnitOfWork struct {
	tx        pgx.Tx
	accountID int64
}

func (u *postgresUnitOfWork) Account(ctx context.Context) (Account, error) {
	row := u.tx.QueryRow(ctx, `SELECT account_id, available_credit_limit, available_withdrawal_limit
        FROM accounts WHERE account_id = $1`, u.accountID)
	var account Account
	if err := row.Scan(&account.ID, &account.AvailableCreditLimit, &account.AvailableWithdrawalLimit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (u *postgresUnitOfWork) AdjustLimits(ctx context.Context, creditDelta, withdrawalDelta decimal.Decimal) error {
	tag, err := u.tx.Exec(ctx, `UPDATE accounts
        SET available_credit_limit = available_credit_limit + $1,
            available_withdrawal_limit = available_withdrawal_limit + $2
        WHERE account_id = $3`, creditDelta, withdrawalDelta, u.accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (u *postgresUnitOfWork) InsertTransaction(ctx context.Context, kind operation.Kind, amount, outstanding decimal.Decimal, dueDate *time.Time) (Transaction, error) {
	row := u.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, operation_type, amount, balance, due_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+transactionColumns, u.accountID, string(kind), amount, outstanding, dueDate)
	return scanTransaction(row)
}

func (u *postgresUnitOfWork) FindOpenCreditBalance(ctx context.Context) (Transaction, bool, error) {
	row := u.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE account_id = $1 AND operation_type = $2 AND balance > 0
        ORDER BY transaction_id LIMIT 1`, u.accountID, string(operation.Payment))
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, false, nil
	}
	if err != nil {
		return Transaction{}, false, err
	}
	return tx, true, nil
}

// ListUnsettled orders by charge order then age; the CASE ranks must match
// the catalog in internal/operation.
func (u *postgresUnitOfWork) ListUnsettled(ctx context.Context) ([]Transaction, error) {
	rows, err := u.tx.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE account_id = $1 AND balance <> 0
        ORDER BY CASE operation_type
            WHEN 'withdrawal' THEN 0
            WHEN 'payment' THEN 0
            WHEN 'installment_purchase' THEN 1
            ELSE 2
        END, event_date, transaction_id`, u.accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (u *postgresUnitOfWork) UpdateTransactionOutstanding(ctx context.Context, transactionID int64, outstanding decimal.Decimal) error {
	tag, err := u.tx.Exec(ctx, `UPDATE transactions SET balance = $1
        WHERE transaction_id = $2 AND account_id = $3`, outstanding, transactionID, u.accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (u *postgresUnitOfWork) FindTransaction(ctx context.Context, transactionID int64) (Transaction, error) {
	row := u.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("find transaction %d: %w", transactionID, err)
	}
	return tx, nil
}
