package usecase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/pkg/xerrors"
)

// TransactionStatusUsecase is the leaf of the status cascade. It derives the
// transaction status from the owning account's status and applies it in bulk.
// There is nothing below a transaction, so no further cascade.
type TransactionStatusUsecase struct {
	transactionRepo repository.TransactionRepository
	logger          *zap.Logger
}

// NewTransactionStatusUsecase creates a new transaction status engine.
func NewTransactionStatusUsecase(transactionRepo repository.TransactionRepository, logger *zap.Logger) *TransactionStatusUsecase {
	return &TransactionStatusUsecase{transactionRepo: transactionRepo, logger: logger}
}

// UpdateStatus maps accountStatus to the derived transaction status and
// applies it to every transaction in the list within the caller's tx. A nil
// or empty list is a no-op, not an error.
func (uc *TransactionStatusUsecase) UpdateStatus(ctx context.Context, tx pgx.Tx, transactions []*domain.Transaction, accountStatus domain.AccountStatus) error {
	if len(transactions) == 0 {
		return nil
	}

	status, ok := domain.TransactionStatusFor(accountStatus)
	if !ok {
		return fmt.Errorf("account status %q: %w", accountStatus, xerrors.ErrInvalidStatus)
	}

	ids := make([]int64, 0, len(transactions))
	for _, txn := range transactions {
		ids = append(ids, txn.ID)
	}

	if err := uc.transactionRepo.UpdateStatusTx(ctx, tx, ids, status); err != nil {
		return err
	}
	for _, txn := range transactions {
		txn.Status = status
	}

	uc.logger.Debug("transaction statuses cascaded",
		zap.Int("count", len(ids)),
		zap.String("status", string(status)))
	return nil
}
