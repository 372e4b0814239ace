package domain

// UserStatus is the lifecycle status of a User.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
	UserStatusDeleted UserStatus = "deleted"
)

// Valid reports whether s is a recognized user status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusBlocked, UserStatusDeleted:
		return true
	}
	return false
}

// AccountStatus is the lifecycle status of a BankAccount.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusBlocked  AccountStatus = "blocked"
	AccountStatusArchived AccountStatus = "archived"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusBlocked, AccountStatusArchived:
		return true
	}
	return false
}

// TransactionStatus is the cascade-derived status of a Transaction.
type TransactionStatus string

const (
	TransactionStatusActive   TransactionStatus = "active"
	TransactionStatusBlocked  TransactionStatus = "blocked"
	TransactionStatusArchived TransactionStatus = "archived"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusActive, TransactionStatusBlocked, TransactionStatusArchived:
		return true
	}
	return false
}

// Status cascade mapping. A status change at one level derives the status one
// level down through these tables; transitions are only ever initiated at the
// User or BankAccount level.
var userToAccountStatus = map[UserStatus]AccountStatus{
	UserStatusActive:  AccountStatusActive,
	UserStatusBlocked: AccountStatusBlocked,
	UserStatusDeleted: AccountStatusArchived,
}

var accountToTransactionStatus = map[AccountStatus]TransactionStatus{
	AccountStatusActive:   TransactionStatusActive,
	AccountStatusBlocked:  TransactionStatusBlocked,
	AccountStatusArchived: TransactionStatusArchived,
}

// AccountStatusFor returns the account status derived from a user status.
func AccountStatusFor(s UserStatus) (AccountStatus, bool) {
	mapped, ok := userToAccountStatus[s]
	return mapped, ok
}

// TransactionStatusFor returns the transaction status derived from an account
// status.
func TransactionStatusFor(s AccountStatus) (TransactionStatus, bool) {
	mapped, ok := accountToTransactionStatus[s]
	return mapped, ok
}
