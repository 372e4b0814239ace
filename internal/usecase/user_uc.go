package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/internal/validation"
	"ledger-service/pkg/xerrors"
)

// UserUsecase covers the user lifecycle around the ledger core: registration,
// account opening, lookups, and the explicit hard-delete path. Status changes
// go through UserStatusUsecase, never through here.
type UserUsecase struct {
	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	auditRepo       repository.AuditRepository
	logger          *zap.Logger
}

// NewUserUsecase creates a new user lifecycle usecase.
func NewUserUsecase(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	logger *zap.Logger,
) *UserUsecase {
	return &UserUsecase{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		logger:          logger,
	}
}

// Register creates an active user together with an initial zero-balance
// account in the given currency, atomically. Unique email/phone violations
// surface as ErrAlreadyExists.
func (uc *UserUsecase) Register(ctx context.Context, req *domain.UserCreate, currency string) (*domain.User, error) {
	if req.Username == "" || req.Email == "" || req.Phone == "" {
		return nil, fmt.Errorf("username, email and phone are required: %w", xerrors.ErrInvalidRequest)
	}
	if err := validation.CheckCurrency(currency); err != nil {
		return nil, err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user := &domain.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   domain.UserStatusActive,
	}
	if err := uc.userRepo.Create(ctx, tx, user); err != nil {
		return nil, err
	}

	account := &domain.BankAccount{
		UserID:   user.ID,
		Balance:  decimal.Zero,
		Currency: currency,
		Status:   domain.AccountStatusActive,
	}
	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}
	user.Accounts = []*domain.BankAccount{account}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	uc.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("account_id", account.ID),
		zap.String("currency", currency))
	return user, nil
}

// OpenAccount opens an additional zero-balance account for an existing,
// active user.
func (uc *UserUsecase) OpenAccount(ctx context.Context, userID int64, currency string) (*domain.BankAccount, error) {
	if err := validation.CheckID(userID); err != nil {
		return nil, err
	}
	if err := validation.CheckCurrency(currency); err != nil {
		return nil, err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	user, err := uc.userRepo.GetByIDTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, fmt.Errorf("user %d: %w", userID, xerrors.ErrUserInactive)
	}

	account := &domain.BankAccount{
		UserID:   userID,
		Balance:  decimal.Zero,
		Currency: currency,
		Status:   domain.AccountStatusActive,
	}
	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account opening: %w", err)
	}

	uc.logger.Info("account opened",
		zap.Int64("user_id", userID),
		zap.Int64("account_id", account.ID),
		zap.String("currency", currency))
	return account, nil
}

// GetUser loads a user with its accounts.
func (uc *UserUsecase) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	if err := validation.CheckID(userID); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Accounts, err = uc.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListTransactions returns an account's transactions in creation order.
func (uc *UserUsecase) ListTransactions(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	if err := validation.CheckID(accountID); err != nil {
		return nil, err
	}
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListByAccount(ctx, accountID)
}

// ListAudit returns the append-only status history of a user.
func (uc *UserUsecase) ListAudit(ctx context.Context, userID int64) ([]*domain.UserStatusAudit, error) {
	if err := validation.CheckID(userID); err != nil {
		return nil, err
	}
	return uc.auditRepo.ListByUser(ctx, userID)
}

// HardDelete removes a user row for an explicit removal request. The cascade
// path never calls this; it archives instead.
func (uc *UserUsecase) HardDelete(ctx context.Context, userID int64) error {
	if err := validation.CheckID(userID); err != nil {
		return err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.userRepo.HardDelete(ctx, tx, userID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	uc.logger.Info("user hard-deleted", zap.Int64("user_id", userID))
	return nil
}
