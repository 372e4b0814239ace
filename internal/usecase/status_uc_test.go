package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/pub"
	"ledger-service/pkg/xerrors"
)

func newStatusUCs(s *fakeStore) (*UserStatusUsecase, *AccountStatusUsecase) {
	logger := zap.NewNop()
	publisher := pub.NewLedgerEventPublisher(nil, nil, logger)
	txStatus := NewTransactionStatusUsecase(s.txnRepo(), logger)
	accountStatus := NewAccountStatusUsecase(s.accountRepo(), s.txnRepo(), txStatus, publisher, logger)
	userStatus := NewUserStatusUsecase(s.userRepo(), s.accountRepo(), s.auditRepo(), accountStatus, publisher, logger)
	return userStatus, accountStatus
}

func TestUserStatusCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("blocking a user blocks accounts and transactions and audits", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		acc1 := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		acc2 := s.addAccount(user.ID, "20.00", domain.AccountStatusActive)
		txn1 := s.addTransaction(acc1.ID, user.ID, domain.TransactionStatusActive)
		txn2 := s.addTransaction(acc2.ID, user.ID, domain.TransactionStatusActive)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusBlocked, "suspicious activity")
		require.NoError(t, err)

		assert.Equal(t, domain.UserStatusBlocked, s.user(user.ID).Status)
		assert.Equal(t, domain.AccountStatusBlocked, s.account(acc1.ID).Status)
		assert.Equal(t, domain.AccountStatusBlocked, s.account(acc2.ID).Status)
		for _, id := range []int64{txn1.ID, txn2.ID} {
			stored, err := s.txnRepo().GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusBlocked, stored.Status)
		}

		audits, err := s.auditRepo().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, audits, 1)
		assert.Equal(t, domain.UserStatusActive, audits[0].OldStatus)
		assert.Equal(t, domain.UserStatusBlocked, audits[0].NewStatus)
		assert.Equal(t, "suspicious activity", audits[0].Reason)
	})

	t.Run("deleting a user archives the tree", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		acc1 := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		acc2 := s.addAccount(user.ID, "0.00", domain.AccountStatusActive)
		txn := s.addTransaction(acc1.ID, user.ID, domain.TransactionStatusActive)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusDeleted, "gdpr request")
		require.NoError(t, err)

		assert.Equal(t, domain.UserStatusDeleted, s.user(user.ID).Status)
		assert.Equal(t, domain.AccountStatusArchived, s.account(acc1.ID).Status)
		assert.Equal(t, domain.AccountStatusArchived, s.account(acc2.ID).Status)
		stored, err := s.txnRepo().GetByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusArchived, stored.Status)

		// The user row survives; cascade never hard-deletes.
		require.NotNil(t, s.user(user.ID))
		audits, err := s.auditRepo().ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, audits, 1)
		assert.Equal(t, domain.UserStatusDeleted, audits[0].NewStatus)
	})

	t.Run("reactivation cascades back to active", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusBlocked)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusBlocked)
		txn := s.addTransaction(account.ID, user.ID, domain.TransactionStatusBlocked)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusActive, "appeal upheld")
		require.NoError(t, err)

		assert.Equal(t, domain.AccountStatusActive, s.account(account.ID).Status)
		stored, _ := s.txnRepo().GetByID(ctx, txn.ID)
		assert.Equal(t, domain.TransactionStatusActive, stored.Status)
	})

	t.Run("rejects transition to the same status", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusActive, "noop")
		assert.ErrorIs(t, err, xerrors.ErrSameStatusTransition)

		audits, _ := s.auditRepo().ListByUser(ctx, user.ID)
		assert.Empty(t, audits)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatus("suspended"), "")
		assert.ErrorIs(t, err, xerrors.ErrInvalidStatus)
		assert.Equal(t, domain.UserStatusActive, s.user(user.ID).Status)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		s := newFakeStore()
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, 999, domain.UserStatusBlocked, "")
		assert.ErrorIs(t, err, xerrors.ErrUserNotFound)
	})

	t.Run("audit failure rolls the whole cascade back", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		txn := s.addTransaction(account.ID, user.ID, domain.TransactionStatusActive)
		s.failAuditAppend = assert.AnError
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusBlocked, "fraud hold")
		require.Error(t, err)

		assert.Equal(t, domain.UserStatusActive, s.user(user.ID).Status)
		assert.Equal(t, domain.AccountStatusActive, s.account(account.ID).Status)
		stored, _ := s.txnRepo().GetByID(ctx, txn.ID)
		assert.Equal(t, domain.TransactionStatusActive, stored.Status)
		audits, _ := s.auditRepo().ListByUser(ctx, user.ID)
		assert.Empty(t, audits)
	})

	t.Run("account cascade failure leaves the user untouched", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		s.failStatusUpdate[account.ID] = xerrors.ErrVersionMismatch
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusBlocked, "fraud hold")
		assert.True(t, xerrors.IsConflict(err), "err = %v", err)
		assert.Equal(t, domain.UserStatusActive, s.user(user.ID).Status)
	})

	t.Run("accounts already in the derived status are skipped", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		blocked := s.addAccount(user.ID, "100.00", domain.AccountStatusBlocked)
		active := s.addAccount(user.ID, "50.00", domain.AccountStatusActive)
		userUC, _ := newStatusUCs(s)

		err := userUC.ChangeStatus(ctx, user.ID, domain.UserStatusBlocked, "hold")
		require.NoError(t, err)

		// Untouched account keeps its version; the cascaded one advances.
		assert.Equal(t, int64(1), s.account(blocked.ID).Version)
		assert.Equal(t, int64(2), s.account(active.ID).Version)
	})
}

func TestAccountStatusChange(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to the account's transactions", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		txn := s.addTransaction(account.ID, user.ID, domain.TransactionStatusActive)
		other := s.addAccount(user.ID, "10.00", domain.AccountStatusActive)
		otherTxn := s.addTransaction(other.ID, user.ID, domain.TransactionStatusActive)
		_, accountUC := newStatusUCs(s)

		err := accountUC.ChangeStatus(ctx, account.ID, domain.AccountStatusBlocked)
		require.NoError(t, err)

		assert.Equal(t, domain.AccountStatusBlocked, s.account(account.ID).Status)
		assert.Equal(t, int64(2), s.account(account.ID).Version)
		stored, _ := s.txnRepo().GetByID(ctx, txn.ID)
		assert.Equal(t, domain.TransactionStatusBlocked, stored.Status)

		// Sibling account is untouched.
		assert.Equal(t, domain.AccountStatusActive, s.account(other.ID).Status)
		untouched, _ := s.txnRepo().GetByID(ctx, otherTxn.ID)
		assert.Equal(t, domain.TransactionStatusActive, untouched.Status)
	})

	t.Run("rejects no-op and unknown transitions", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		_, accountUC := newStatusUCs(s)

		err := accountUC.ChangeStatus(ctx, account.ID, domain.AccountStatusActive)
		assert.ErrorIs(t, err, xerrors.ErrSameStatusTransition)

		err = accountUC.ChangeStatus(ctx, account.ID, domain.AccountStatus("frozen"))
		assert.ErrorIs(t, err, xerrors.ErrInvalidStatus)

		assert.Equal(t, int64(1), s.account(account.ID).Version)
	})

	t.Run("transaction cascade failure rolls the account status back", func(t *testing.T) {
		s := newFakeStore()
		user := s.addUser(domain.UserStatusActive)
		account := s.addAccount(user.ID, "100.00", domain.AccountStatusActive)
		s.addTransaction(account.ID, user.ID, domain.TransactionStatusActive)
		s.failTxnStatus = &xerrors.ConsistencyError{Entity: "transaction", ID: 1, Detail: "rows affected mismatch"}
		_, accountUC := newStatusUCs(s)

		err := accountUC.ChangeStatus(ctx, account.ID, domain.AccountStatusBlocked)
		require.Error(t, err)
		assert.Equal(t, domain.AccountStatusActive, s.account(account.ID).Status)
	})
}
