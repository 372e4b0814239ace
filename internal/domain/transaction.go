package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger-service/pkg/xerrors"
)

// TransactionType classifies a balance-affecting operation.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypePayment,
		TransactionTypeWithdrawal, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is the immutable record of one balance mutation. Exactly one is
// created per committed deposit or withdrawal, two per transfer (one leg
// each). Only Status is ever mutated after creation, and only by cascade from
// the owning account.
type Transaction struct {
	ID           int64             `json:"id"`
	Reference    string            `json:"reference"`
	Amount       decimal.Decimal   `json:"amount"`
	Type         TransactionType   `json:"type"`
	AccountID    int64             `json:"account_id"`
	SourceUserID *int64            `json:"source_user_id,omitempty"` // absent for pure deposits
	TargetUserID int64             `json:"target_user_id"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Validate checks the record before it is persisted. A transaction that fails
// here must never reach the store.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return xerrors.ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return xerrors.ErrInvalidRequest
	}
	if t.AccountID == 0 {
		return xerrors.ErrInvalidID
	}
	if t.TargetUserID == 0 {
		return xerrors.ErrUserRequired
	}
	return nil
}
