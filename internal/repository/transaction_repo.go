package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// TransactionRepository persists the immutable transaction records. Inserts
// always run inside the caller's pgx.Tx so the record commits or rolls back
// together with the balance mutation it documents. Only the status column is
// ever updated, and only by the cascade.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*domain.Transaction, error)
	ListByAccountTx(ctx context.Context, tx pgx.Tx, accountID int64) ([]*domain.Transaction, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, transactionIDs []int64, status domain.TransactionStatus) error
}

type transactionRepo struct {
	db *pgxpool.Pool
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionSelect = `
	SELECT id, reference, amount::text, type, account_id, source_user_id, target_user_id, status, created_at
	FROM transactions`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount string

	err := row.Scan(
		&t.ID, &t.Reference, &amount, &t.Type, &t.AccountID,
		&t.SourceUserID, &t.TargetUserID, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return &t, nil
}

func (r *transactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (reference, amount, type, account_id, source_user_id, target_user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query,
		txn.Reference,
		txn.Amount.StringFixed(2),
		txn.Type,
		txn.AccountID,
		txn.SourceUserID,
		txn.TargetUserID,
		txn.Status,
		txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, transactionSelect+` WHERE id = $1`, transactionID))
}

func (r *transactionRepo) ListByAccount(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, transactionSelect+` WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *transactionRepo) ListByAccountTx(ctx context.Context, tx pgx.Tx, accountID int64) ([]*domain.Transaction, error) {
	rows, err := tx.Query(ctx, transactionSelect+` WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// UpdateStatusTx applies a cascade-derived status to a batch of transactions.
// The row count must match the batch: a shortfall means the cascade would
// leave children out of step with their parent, so the caller must roll back.
func (r *transactionRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, transactionIDs []int64, status domain.TransactionStatus) error {
	if len(transactionIDs) == 0 {
		return nil
	}

	query := `UPDATE transactions SET status = $1 WHERE id = ANY($2)`
	tag, err := tx.Exec(ctx, query, status, transactionIDs)
	if err != nil {
		return fmt.Errorf("failed to update transaction statuses: %w", err)
	}
	if tag.RowsAffected() != int64(len(transactionIDs)) {
		return &xerrors.ConsistencyError{
			Entity: "transaction",
			Detail: fmt.Sprintf("cascade updated %d of %d rows", tag.RowsAffected(), len(transactionIDs)),
		}
	}
	return nil
}
