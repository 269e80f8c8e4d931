package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache memoises computed signed balances in Redis. Keys are
// versioned per ledger: invalidation bumps the version so stale entries
// simply age out under the TTL instead of being scanned and deleted.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache constructs the cache. A nil client disables caching.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func (c *BalanceCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *BalanceCache) version(ctx context.Context, ledgerID int64) int64 {
	ver, err := c.client.Get(ctx, fmt.Sprintf("balance:ver:%d", ledgerID)).Int64()
	if err != nil {
		return 0
	}
	return ver
}

func (c *BalanceCache) key(ctx context.Context, ledgerID int64, date time.Time) string {
	return fmt.Sprintf("balance:%d:v%d:%s", ledgerID, c.version(ctx, ledgerID), date.Format("2006-01-02"))
}

// Get returns the cached signed balance if present.
func (c *BalanceCache) Get(ctx context.Context, ledgerID int64, date time.Time) (decimal.Decimal, bool) {
	if !c.enabled() {
		return decimal.Zero, false
	}
	raw, err := c.client.Get(ctx, c.key(ctx, ledgerID, date)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	signed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return signed, true
}

// Set stores a computed signed balance.
func (c *BalanceCache) Set(ctx context.Context, ledgerID int64, date time.Time, signed decimal.Decimal) {
	if !c.enabled() {
		return
	}
	_ = c.client.Set(ctx, c.key(ctx, ledgerID, date), signed.String(), c.ttl).Err()
}

// Invalidate bumps the version for the given ledgers after a posting.
func (c *BalanceCache) Invalidate(ctx context.Context, ledgerIDs ...int64) {
	if !c.enabled() {
		return
	}
	for _, id := range ledgerIDs {
		key := fmt.Sprintf("balance:ver:%d", id)
		if err := c.client.Incr(ctx, key).Err(); err == nil {
			_ = c.client.Expire(ctx, key, 24*time.Hour).Err()
		}
	}
}
