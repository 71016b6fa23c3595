package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UtkarshNigam11/Syncender-sub001/internal/domain/models"
)

// ReminderMarks keeps the per-match "already notified" marker. SETNX with
// a TTL makes reminder emission idempotent across rescans and process
// restarts without any event log.
type ReminderMarks struct {
	redis *redis.Client
}

func NewReminderMarks(redisClient *redis.Client) *ReminderMarks {
	return &ReminderMarks{redis: redisClient}
}

func (r *ReminderMarks) MarkOnce(ctx context.Context, id models.MatchID, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}

	key := fmt.Sprintf("reminder:%s", id)
	set, err := r.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx reminder mark: %w", err)
	}

	return set, nil
}
