package domain

import "time"

// User owns an ordered collection of bank accounts. Users are registered with
// status active and are never hard-deleted by the status cascade; the cascade
// moves them to deleted instead. Hard delete exists only as an explicit
// removal operation.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Loaded on demand, ordered by account id.
	Accounts []*BankAccount `json:"accounts,omitempty"`
}

// UserCreate carries the attributes required to register a user.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
