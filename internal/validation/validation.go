// Package validation holds the pure predicate checks that gate every engine
// operation. A failing check aborts the whole enclosing operation before any
// mutation is applied; there are no retries and no partial application.
package validation

import (
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// CheckAmount rejects a zero or negative operation amount.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return xerrors.ErrInvalidAmount
	}
	return nil
}

// CheckBalance rejects a computed balance below zero before it is saved.
func CheckBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return xerrors.ErrInvalidBalance
	}
	return nil
}

// CheckID rejects an unset entity id.
func CheckID(id int64) error {
	if id == 0 {
		return xerrors.ErrInvalidID
	}
	return nil
}

// CheckCurrency rejects codes outside the supported set.
func CheckCurrency(code string) error {
	if !domain.SupportedCurrencies[code] {
		return xerrors.ErrUnsupportedCurrency
	}
	return nil
}

// CheckAccountStatus validates a status transition on an account: the target
// must be a recognized status and must differ from the current one. A no-op
// transition signals a caller error and is rejected.
func CheckAccountStatus(newStatus, oldStatus domain.AccountStatus) error {
	if !newStatus.Valid() {
		return xerrors.ErrInvalidStatus
	}
	if newStatus == oldStatus {
		return xerrors.ErrSameStatusTransition
	}
	return nil
}

// CheckUserStatus is the user-level counterpart of CheckAccountStatus.
func CheckUserStatus(newStatus, oldStatus domain.UserStatus) error {
	if !newStatus.Valid() {
		return xerrors.ErrInvalidStatus
	}
	if newStatus == oldStatus {
		return xerrors.ErrSameStatusTransition
	}
	return nil
}

// CheckUser rejects a missing owning-user reference.
func CheckUser(user *domain.User) error {
	if user == nil {
		return xerrors.ErrUserNotFound
	}
	return nil
}
