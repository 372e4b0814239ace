package xerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ParsePGErrorCode extracts the SQLSTATE code from a postgres error.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
)

// Validation failures. Recoverable by the caller correcting input.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidBalance      = errors.New("balance must not be negative")
	ErrInvalidID           = errors.New("id is required")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrSameStatusTransition = errors.New("status transition to the same status")
	ErrSameAccountTransfer  = errors.New("source and target account are the same")
	ErrCurrencyMismatch     = errors.New("account currencies do not match")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrUserRequired         = errors.New("owning user is required")
)

// Lookup failures
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountInactive     = errors.New("account is not active")
	ErrUserInactive        = errors.New("user is not active")
	ErrAlreadyExists       = errors.New("already exists")
)

// Concurrency failures. Safe for the caller to retry the whole
// read-modify-write sequence; never retried internally.
var (
	ErrVersionMismatch        = errors.New("version mismatch")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidBalance, ErrInvalidID,
		ErrUnsupportedCurrency, ErrInvalidStatus, ErrSameStatusTransition,
		ErrSameAccountTransfer, ErrCurrencyMismatch, ErrInsufficientFunds,
		ErrUserRequired, ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err belongs to the not-found family. An account
// outside its expected status counts: the caller referenced an entity that is
// not there in the form the operation requires.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrUserInactive)
}

// IsConflict reports whether err signals an optimistic-lock conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrVersionMismatch) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrAlreadyExists)
}

// ConsistencyError marks a partial write the store should have made
// impossible: a balance mutation without its transaction record, or a cascade
// that left children out of step with their parent. It indicates a bug, not
// bad input, and must reach the operator.
type ConsistencyError struct {
	Entity string
	ID     int64
	Detail string
	Err    error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consistency violation on %s %d: %s: %v", e.Entity, e.ID, e.Detail, e.Err)
	}
	return fmt.Sprintf("consistency violation on %s %d: %s", e.Entity, e.ID, e.Detail)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// IsConsistency reports whether err is a fatal consistency violation.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
