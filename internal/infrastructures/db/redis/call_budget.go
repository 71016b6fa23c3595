package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CallBudget counts provider calls per UTC day. The key expires a little
// after the day rolls over, so the counter resets itself.
type CallBudget struct {
	redis *redis.Client
	now   func() time.Time
}

func NewCallBudget(redisClient *redis.Client) *CallBudget {
	return &CallBudget{redis: redisClient, now: time.Now}
}

func (b *CallBudget) Spend(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return b.UsedToday(ctx)
	}

	key := b.key()
	total, err := b.redis.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr call budget: %w", err)
	}

	if total == int64(n) {
		// First spend of the day sets the expiry.
		if err := b.redis.Expire(ctx, key, 26*time.Hour).Err(); err != nil {
			return total, fmt.Errorf("redis expire call budget: %w", err)
		}
	}

	return total, nil
}

func (b *CallBudget) UsedToday(ctx context.Context) (int64, error) {
	used, err := b.redis.Get(ctx, b.key()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get call budget: %w", err)
	}

	return used, nil
}

func (b *CallBudget) key() string {
	return fmt.Sprintf("budget:%s", b.now().UTC().Format("2006-01-02"))
}
