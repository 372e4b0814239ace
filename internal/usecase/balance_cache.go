package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const balanceCacheTTL = 5 * time.Minute

// BalanceCache is a redis read-through cache for account balances. It only
// serves reads; every committed balance write invalidates the entry, so a
// stale hit can never outlive the operation that changed the balance.
type BalanceCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewBalanceCache creates a new balance cache. A nil redis client disables
// caching entirely.
func NewBalanceCache(rdb *redis.Client, logger *zap.Logger) *BalanceCache {
	return &BalanceCache{rdb: rdb, logger: logger}
}

type cachedBalance struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	Version  int64  `json:"version"`
}

func balanceKey(accountID int64) string {
	return fmt.Sprintf("balance:%d", accountID)
}

// Get returns the cached balance and version, or ok=false on miss or error.
func (c *BalanceCache) Get(ctx context.Context, accountID int64) (decimal.Decimal, int64, bool) {
	if c.rdb == nil {
		return decimal.Zero, 0, false
	}

	raw, err := c.rdb.Get(ctx, balanceKey(accountID)).Bytes()
	if err != nil {
		return decimal.Zero, 0, false
	}

	var cached cachedBalance
	if err := json.Unmarshal(raw, &cached); err != nil {
		return decimal.Zero, 0, false
	}
	balance, err := decimal.NewFromString(cached.Balance)
	if err != nil {
		return decimal.Zero, 0, false
	}
	return balance, cached.Version, true
}

// Set stores a balance snapshot. Failures are logged and swallowed; the
// cache is an optimization, not a source of truth.
func (c *BalanceCache) Set(ctx context.Context, accountID int64, balance decimal.Decimal, currency string, version int64) {
	if c.rdb == nil {
		return
	}

	payload, err := json.Marshal(cachedBalance{
		Balance:  balance.StringFixed(2),
		Currency: currency,
		Version:  version,
	})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, balanceKey(accountID), payload, balanceCacheTTL).Err(); err != nil {
		c.logger.Warn("failed to cache balance", zap.Int64("account_id", accountID), zap.Error(err))
	}
}

// Invalidate drops the cached entry after a committed write.
func (c *BalanceCache) Invalidate(ctx context.Context, accountIDs ...int64) {
	if c.rdb == nil || len(accountIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, balanceKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to invalidate balance cache", zap.Error(err))
	}
}
