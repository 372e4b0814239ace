package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/internal/validation"
	"ledger-service/pkg/utils"
	"ledger-service/pkg/xerrors"
)

// TransactionRecorder creates the immutable transaction record for every
// balance mutation. Record always runs inside the caller's pgx.Tx: the
// balance update and its record commit together or not at all. A recorder
// failure therefore aborts the enclosing operation instead of leaving a
// mutation without its paper trail.
type TransactionRecorder struct {
	transactionRepo repository.TransactionRepository
	userRepo        repository.UserRepository
	refGen          *utils.ReferenceGenerator
}

// NewTransactionRecorder creates a new transaction recorder.
func NewTransactionRecorder(
	transactionRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	refGen *utils.ReferenceGenerator,
) *TransactionRecorder {
	return &TransactionRecorder{
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		refGen:          refGen,
	}
}

// Record builds, validates, and persists one transaction record within tx.
// sourceUserID may be nil for pure deposits; the target user must exist.
func (r *TransactionRecorder) Record(
	ctx context.Context,
	tx pgx.Tx,
	amount decimal.Decimal,
	txType domain.TransactionType,
	account *domain.BankAccount,
	sourceUserID *int64,
	targetUserID int64,
) (*domain.Transaction, error) {
	if err := validation.CheckAmount(amount); err != nil {
		return nil, err
	}
	if !txType.Valid() {
		return nil, fmt.Errorf("transaction type %q: %w", txType, xerrors.ErrInvalidRequest)
	}

	target, err := r.userRepo.GetByIDTx(ctx, tx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("target user %d: %w", targetUserID, err)
	}
	if err := validation.CheckUser(target); err != nil {
		return nil, err
	}

	status, ok := domain.TransactionStatusFor(account.Status)
	if !ok {
		return nil, fmt.Errorf("account %d status %q: %w", account.ID, account.Status, xerrors.ErrInvalidStatus)
	}

	txn := &domain.Transaction{
		Reference:    r.refGen.TransactionRef(),
		Amount:       amount,
		Type:         txType,
		AccountID:    account.ID,
		SourceUserID: sourceUserID,
		TargetUserID: targetUserID,
		Status:       status,
		CreatedAt:    time.Now(),
	}

	if err := r.transactionRepo.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", txType, err)
	}
	return txn, nil
}
