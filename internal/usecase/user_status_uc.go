package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/validation"
)

// UserStatusUsecase is the top of the status cascade. A user status change
// propagates to every owned account and from there to every transaction, and
// appends one audit record, all inside one transaction. The hierarchy is
// never observable in a mixed state.
type UserStatusUsecase struct {
	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	auditRepo       repository.AuditRepository
	accountStatusUC *AccountStatusUsecase
	publisher       *pub.LedgerEventPublisher
	logger          *zap.Logger
}

// NewUserStatusUsecase creates a new user status engine.
func NewUserStatusUsecase(
	userRepo repository.UserRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditRepository,
	accountStatusUC *AccountStatusUsecase,
	publisher *pub.LedgerEventPublisher,
	logger *zap.Logger,
) *UserStatusUsecase {
	return &UserStatusUsecase{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		auditRepo:       auditRepo,
		accountStatusUC: accountStatusUC,
		publisher:       publisher,
		logger:          logger,
	}
}

// ChangeStatus moves a user to newStatus, cascades to all owned accounts and
// their transactions, and appends the audit record. Validation runs against
// the user before any write; a failure anywhere rolls the whole cascade back.
func (uc *UserStatusUsecase) ChangeStatus(ctx context.Context, userID int64, newStatus domain.UserStatus, reason string) error {
	if err := validation.CheckID(userID); err != nil {
		return err
	}

	tx, err := uc.accountRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	user, err := uc.userRepo.GetByIDTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	oldStatus := user.Status
	if err := validation.CheckUserStatus(newStatus, oldStatus); err != nil {
		return err
	}

	if err := uc.userRepo.UpdateStatusTx(ctx, tx, userID, newStatus); err != nil {
		return err
	}

	accounts, err := uc.accountRepo.ListByUserTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := uc.accountStatusUC.UpdateStatus(ctx, tx, accounts, newStatus); err != nil {
		return err
	}

	audit := &domain.UserStatusAudit{
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Reason:    reason,
		ChangedAt: time.Now(),
	}
	if err := uc.auditRepo.Append(ctx, tx, audit); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user status cascade: %w", err)
	}

	uc.logger.Info("user status changed",
		zap.Int64("user_id", userID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
		zap.Int("accounts_cascaded", len(accounts)),
		zap.String("reason", reason))
	uc.publisher.PublishUserStatusChanged(ctx, userID, oldStatus, newStatus, reason)

	return nil
}
