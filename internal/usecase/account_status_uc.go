package usecase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/validation"
	"ledger-service/pkg/xerrors"
)

// AccountStatusUsecase is the middle level of the status cascade: it changes
// an account's status and cascades the derived status to the account's
// transactions. ChangeStatus runs its own transaction; UpdateStatus is the
// bulk variant driven by the user-level cascade inside the caller's tx.
type AccountStatusUsecase struct {
	accountRepo repository.AccountRepository
	txStatusUC  *TransactionStatusUsecase
	publisher   *pub.LedgerEventPublisher
	logger      *zap.Logger
	transactionRepo repository.TransactionRepository
}

// NewAccountStatusUsecase creates a new account status engine.
func NewAccountStatusUsecase(
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	txStatusUC *TransactionStatusUsecase,
	publisher *pub.LedgerEventPublisher,
	logger *zap.Logger,
) *AccountStatusUsecase {
	return &AccountStatusUsecase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		txStatusUC:      txStatusUC,
		publisher:       publisher,
		logger:          logger,
	}
}

// ChangeStatus moves one account to newStatus and cascades to its
// transactions, all inside one transaction. The transition is validated
// before any write: unknown statuses and no-op transitions abort the whole
// cascade.
func (uc *AccountStatusUsecase) ChangeStatus(ctx context.Context, accountID int64, newStatus domain.AccountStatus) error {
	if err := validation.CheckID(accountID); err != nil {
		return err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDTx(ctx, tx, accountID)
	if err != nil {
		return err
	}
	oldStatus := account.Status
	if err := validation.CheckAccountStatus(newStatus, oldStatus); err != nil {
		return err
	}

	if err := uc.applyStatus(ctx, tx, account, newStatus); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account status change: %w", err)
	}

	uc.logger.Info("account status changed",
		zap.Int64("account_id", accountID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)))
	uc.publisher.PublishAccountStatusChanged(ctx, accountID, oldStatus, newStatus)

	return nil
}

// UpdateStatus is the bulk variant invoked by the user-level cascade. It maps
// userStatus to the derived account status once and applies it to every
// account in the list, recursing into each account's transactions. A nil or
// empty list is a no-op.
func (uc *AccountStatusUsecase) UpdateStatus(ctx context.Context, tx pgx.Tx, accounts []*domain.BankAccount, userStatus domain.UserStatus) error {
	if len(accounts) == 0 {
		return nil
	}

	status, ok := domain.AccountStatusFor(userStatus)
	if !ok {
		return fmt.Errorf("user status %q: %w", userStatus, xerrors.ErrInvalidStatus)
	}

	for _, account := range accounts {
		// Accounts already in the derived status are left alone; the cascade
		// is driven by the parent, not by per-account transitions.
		if account.Status == status {
			continue
		}
		if err := uc.applyStatus(ctx, tx, account, status); err != nil {
			return fmt.Errorf("account %d: %w", account.ID, err)
		}
	}
	return nil
}

// applyStatus writes the status (version-checked) and cascades to the
// account's transactions within tx.
func (uc *AccountStatusUsecase) applyStatus(ctx context.Context, tx pgx.Tx, account *domain.BankAccount, status domain.AccountStatus) error {
	if err := uc.accountRepo.UpdateStatusOptimistic(ctx, tx, account.ID, status, account.Version); err != nil {
		return err
	}
	account.Status = status
	account.Version++

	transactions, err := uc.transactionRepo.ListByAccountTx(ctx, tx, account.ID)
	if err != nil {
		return err
	}
	return uc.txStatusUC.UpdateStatus(ctx, tx, transactions, status)
}
