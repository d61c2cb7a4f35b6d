package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// quotaKeyTTL keeps per-day counters around slightly longer than a day so a
// key never expires mid-window.
const quotaKeyTTL = 26 * time.Hour

// RedisQuota counts daily submissions in Redis, one key per candidate per
// UTC day.
type RedisQuota struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisQuota returns a Redis-backed Quota.
func NewRedisQuota(rdb *redis.Client) *RedisQuota {
	return &RedisQuota{rdb: rdb, now: time.Now}
}

// WithClock overrides the quota clock. Test hook.
func (q *RedisQuota) WithClock(now func() time.Time) *RedisQuota {
	q.now = now
	return q
}

func (q *RedisQuota) key(candidateID string) string {
	return fmt.Sprintf("quota:apply:%s:%s", candidateID, q.now().UTC().Format("2006-01-02"))
}

// Used returns the number of submissions recorded today.
func (q *RedisQuota) Used(ctx context.Context, candidateID string) (int, error) {
	n, err := q.rdb.Get(ctx, q.key(candidateID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota get: %w", err)
	}
	return n, nil
}

// Record increments today's counter, setting the expiry on first use.
func (q *RedisQuota) Record(ctx context.Context, candidateID string) error {
	key := q.key(candidateID)
	n, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("quota incr: %w", err)
	}
	if n == 1 {
		if err := q.rdb.Expire(ctx, key, quotaKeyTTL).Err(); err != nil {
			return fmt.Errorf("quota expire: %w", err)
		}
	}
	return nil
}
