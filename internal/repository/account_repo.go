package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// AccountRepository is the persistence boundary for bank accounts. Every
// method that writes balance or status takes the version read earlier and
// returns xerrors.ErrVersionMismatch when another writer committed first.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.BankAccount) error
	GetByID(ctx context.Context, accountID int64) (*domain.BankAccount, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.BankAccount, error)
	ListByUserTx(ctx context.Context, tx pgx.Tx, userID int64) ([]*domain.BankAccount, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.BankAccount, error)

	// Optimistic writes
	UpdateBalanceOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal, expectedVersion int64) error
	UpdateStatusOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, status domain.AccountStatus, expectedVersion int64) error

	// Transaction helper
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type accountRepo struct {
	db *pgxpool.Pool
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const accountSelect = `
	SELECT id, user_id, balance::text, currency, status, version, created_at, updated_at
	FROM bank_accounts`

func scanAccount(row pgx.Row) (*domain.BankAccount, error) {
	var a domain.BankAccount
	var balance string

	err := row.Scan(
		&a.ID, &a.UserID, &balance, &a.Currency,
		&a.Status, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid stored balance %q: %w", balance, err)
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, tx pgx.Tx, account *domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (user_id, balance, currency, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		RETURNING id, version, created_at, updated_at
	`
	now := time.Now()
	row := tx.QueryRow(ctx, query,
		account.UserID,
		account.Balance.StringFixed(2),
		account.Currency,
		account.Status,
		now,
	)
	if err := row.Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, accountID int64) (*domain.BankAccount, error) {
	return scanAccount(r.db.QueryRow(ctx, accountSelect+` WHERE id = $1`, accountID))
}

func (r *accountRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.BankAccount, error) {
	return scanAccount(tx.QueryRow(ctx, accountSelect+` WHERE id = $1`, accountID))
}

func (r *accountRepo) ListByUserTx(ctx context.Context, tx pgx.Tx, userID int64) ([]*domain.BankAccount, error) {
	rows, err := tx.Query(ctx, accountSelect+` WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *accountRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.BankAccount, error) {
	rows, err := r.db.Query(ctx, accountSelect+` WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*domain.BankAccount, error) {
	var accounts []*domain.BankAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// UpdateBalanceOptimistic writes a new balance using version checking.
// Returns xerrors.ErrVersionMismatch if a concurrent writer got there first.
func (r *accountRepo) UpdateBalanceOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, balance decimal.Decimal, expectedVersion int64) error {
	query := `
		UPDATE bank_accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	var newVersion int64
	err := tx.QueryRow(ctx, query,
		balance.StringFixed(2),
		time.Now(),
		accountID,
		expectedVersion,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.ErrVersionMismatch
		}
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}
	return nil
}

// UpdateStatusOptimistic writes a new status under the same version discipline
// as balance writes, so cascades and balance operations serialize against each
// other.
func (r *accountRepo) UpdateStatusOptimistic(ctx context.Context, tx pgx.Tx, accountID int64, status domain.AccountStatus, expectedVersion int64) error {
	query := `
		UPDATE bank_accounts
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	var newVersion int64
	err := tx.QueryRow(ctx, query, status, time.Now(), accountID, expectedVersion).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.ErrVersionMismatch
		}
		return fmt.Errorf("failed to update status for account %d: %w", accountID, err)
	}
	return nil
}
