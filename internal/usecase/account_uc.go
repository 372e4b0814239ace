package usecase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/validation"
	"ledger-service/pkg/xerrors"
)

// AccountUsecase is the account operation engine: deposit, withdraw, and
// transfer. Each operation is one read-modify-write sequence inside a single
// pgx.Tx with an optimistic version check on every balance write. On version
// mismatch the whole operation fails with a conflict and the caller retries;
// nothing is retried internally.
type AccountUsecase struct {
	accountRepo repository.AccountRepository
	userRepo    repository.UserRepository
	recorder    *TransactionRecorder
	publisher   *pub.LedgerEventPublisher
	cache       *BalanceCache
	logger      *zap.Logger
}

// NewAccountUsecase creates a new account operation engine.
func NewAccountUsecase(
	accountRepo repository.AccountRepository,
	userRepo repository.UserRepository,
	recorder *TransactionRecorder,
	publisher *pub.LedgerEventPublisher,
	cache *BalanceCache,
	logger *zap.Logger,
) *AccountUsecase {
	return &AccountUsecase{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		recorder:    recorder,
		publisher:   publisher,
		cache:       cache,
		logger:      logger,
	}
}

// Deposit adds amount to the account balance and records a deposit
// transaction, atomically.
func (uc *AccountUsecase) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := validation.CheckID(accountID); err != nil {
		return nil, err
	}
	if err := validation.CheckAmount(amount); err != nil {
		return nil, err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.loadActiveAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	txn, err := uc.applyDeposit(ctx, tx, account, amount, nil)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	uc.logger.Info("deposit completed",
		zap.Int64("account_id", accountID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reference", txn.Reference))
	uc.publisher.PublishTransactionCompleted(ctx, txn, account.Balance)
	uc.cache.Invalidate(ctx, accountID)

	return txn, nil
}

// Withdraw subtracts amount from the account balance and records a withdrawal
// transaction, atomically. The balance never goes negative: insufficient
// funds abort before any mutation.
func (uc *AccountUsecase) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := validation.CheckID(accountID); err != nil {
		return nil, err
	}
	if err := validation.CheckAmount(amount); err != nil {
		return nil, err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.loadActiveAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	txn, err := uc.applyWithdrawal(ctx, tx, account, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}

	uc.logger.Info("withdrawal completed",
		zap.Int64("account_id", accountID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reference", txn.Reference))
	uc.publisher.PublishTransactionCompleted(ctx, txn, account.Balance)
	uc.cache.Invalidate(ctx, accountID)

	return txn, nil
}

// Transfer moves amount from the source account to the target account as one
// atomic unit: the withdrawal leg and the deposit leg commit together or roll
// back together. Self-transfers are rejected outright.
func (uc *AccountUsecase) Transfer(ctx context.Context, sourceID, targetID int64, amount decimal.Decimal) ([]*domain.Transaction, error) {
	if err := validation.CheckID(sourceID); err != nil {
		return nil, err
	}
	if err := validation.CheckID(targetID); err != nil {
		return nil, err
	}
	if sourceID == targetID {
		return nil, xerrors.ErrSameAccountTransfer
	}
	if err := validation.CheckAmount(amount); err != nil {
		return nil, err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	source, err := uc.loadActiveAccount(ctx, tx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	target, err := uc.loadActiveAccount(ctx, tx, targetID)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if source.Currency != target.Currency {
		return nil, xerrors.ErrCurrencyMismatch
	}

	// Withdraw leg first; its failure must abort before the deposit leg.
	withdrawal, err := uc.applyWithdrawal(ctx, tx, source, amount)
	if err != nil {
		return nil, fmt.Errorf("withdraw leg: %w", err)
	}
	deposit, err := uc.applyDeposit(ctx, tx, target, amount, &source.UserID)
	if err != nil {
		return nil, fmt.Errorf("deposit leg: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	uc.logger.Info("transfer completed",
		zap.Int64("source_account_id", sourceID),
		zap.Int64("target_account_id", targetID),
		zap.String("amount", amount.StringFixed(2)))
	uc.publisher.PublishTransactionCompleted(ctx, withdrawal, source.Balance)
	uc.publisher.PublishTransactionCompleted(ctx, deposit, target.Balance)
	uc.cache.Invalidate(ctx, sourceID, targetID)

	return []*domain.Transaction{withdrawal, deposit}, nil
}

// GetAccount loads a single account from the store and refreshes the balance
// cache. Cache entries are invalidated on every committed write, so a later
// cache hit is current.
func (uc *AccountUsecase) GetAccount(ctx context.Context, accountID int64) (*domain.BankAccount, error) {
	if err := validation.CheckID(accountID); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, account.ID, account.Balance, account.Currency, account.Version)
	return account, nil
}

// GetBalance returns the current balance, preferring the cache.
func (uc *AccountUsecase) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	if err := validation.CheckID(accountID); err != nil {
		return decimal.Zero, err
	}

	if balance, _, ok := uc.cache.Get(ctx, accountID); ok {
		return balance, nil
	}
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	uc.cache.Set(ctx, account.ID, account.Balance, account.Currency, account.Version)
	return account.Balance, nil
}

// loadActiveAccount fetches an account inside tx and rejects anything that is
// not active.
func (uc *AccountUsecase) loadActiveAccount(ctx context.Context, tx pgx.Tx, accountID int64) (*domain.BankAccount, error) {
	account, err := uc.accountRepo.GetByIDTx(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active() {
		return nil, fmt.Errorf("account %d: %w", accountID, xerrors.ErrAccountInactive)
	}
	return account, nil
}

// applyDeposit mutates the balance upward and records the deposit leg. The
// account's Balance and Version fields are advanced in place so a later leg
// in the same tx sees the new state.
func (uc *AccountUsecase) applyDeposit(ctx context.Context, tx pgx.Tx, account *domain.BankAccount, amount decimal.Decimal, sourceUserID *int64) (*domain.Transaction, error) {
	newBalance := account.Balance.Add(amount)
	if err := validation.CheckBalance(newBalance); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalanceOptimistic(ctx, tx, account.ID, newBalance, account.Version); err != nil {
		return nil, err
	}
	account.Balance = newBalance
	account.Version++

	txn, err := uc.recorder.Record(ctx, tx, amount, domain.TransactionTypeDeposit, account, sourceUserID, account.UserID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// applyWithdrawal mutates the balance downward and records the withdrawal
// leg. Insufficient funds fail before the balance write.
func (uc *AccountUsecase) applyWithdrawal(ctx context.Context, tx pgx.Tx, account *domain.BankAccount, amount decimal.Decimal) (*domain.Transaction, error) {
	if account.Balance.LessThan(amount) {
		return nil, fmt.Errorf("account %d (available: %s, required: %s): %w",
			account.ID, account.Balance.StringFixed(2), amount.StringFixed(2), xerrors.ErrInsufficientFunds)
	}

	newBalance := account.Balance.Sub(amount)
	if err := validation.CheckBalance(newBalance); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalanceOptimistic(ctx, tx, account.ID, newBalance, account.Version); err != nil {
		return nil, err
	}
	account.Balance = newBalance
	account.Version++

	txn, err := uc.recorder.Record(ctx, tx, amount, domain.TransactionTypeWithdrawal, account, &account.UserID, account.UserID)
	if err != nil {
		return nil, err
	}
	return txn, nil
}
