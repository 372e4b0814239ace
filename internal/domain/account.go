package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupportedCurrencies is the fixed set of currency codes an account may hold.
var SupportedCurrencies = map[string]bool{
	"USD":  true,
	"EUR":  true,
	"GBP":  true,
	"KES":  true,
	"BTC":  true,
	"USDT": true,
}

// BankAccount holds a non-negative decimal balance in a single currency.
// Balance is mutated only by the account operation engine; status only by the
// status cascade. Version is the optimistic-concurrency counter: every write
// to balance or status presents the version read earlier and loses if the
// stored row has advanced since.
type BankAccount struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    AccountStatus   `json:"status"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Loaded on demand, ordered by transaction id.
	Transactions []*Transaction `json:"transactions,omitempty"`
}

// Active reports whether the account accepts balance operations.
func (a *BankAccount) Active() bool {
	return a.Status == AccountStatusActive
}
