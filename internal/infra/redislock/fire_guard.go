// internal/infra/redislock/fire_guard.go
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "trigger:fire"

// FireGuard claims (schedule, minute) slots with SET NX so only one of several
// overlapping passes fans out a given schedule minute.
type FireGuard struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewFireGuard(rdb redis.UniversalClient, ttl time.Duration) *FireGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &FireGuard{rdb: rdb, ttl: ttl}
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (g *FireGuard) Claim(ctx context.Context, scheduleID int64, minute time.Time) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, Key(scheduleID, minute), minute.Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim schedule %d: %w", scheduleID, err)
	}
	return ok, nil
}

func (g *FireGuard) Release(ctx context.Context, scheduleID int64, minute time.Time) error {
	if err := g.rdb.Del(ctx, Key(scheduleID, minute)).Err(); err != nil {
		return fmt.Errorf("release schedule %d: %w", scheduleID, err)
	}
	return nil
}

// Key is the claim key for one schedule minute, always expressed in UTC.
func Key(scheduleID int64, minute time.Time) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, scheduleID, minute.UTC().Format("200601021504"))
}
