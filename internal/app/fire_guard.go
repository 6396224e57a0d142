// internal/app/fire_guard.go
package app

import (
	"context"
	"time"
)

// FireGuard claims a (schedule, minute) slot across concurrently running passes.
type FireGuard interface {
	// Claim returns false when another pass already holds the slot.
	Claim(ctx context.Context, scheduleID int64, minute time.Time) (bool, error)
	// Release frees a slot that was claimed but not fired.
	Release(ctx context.Context, scheduleID int64, minute time.Time) error
}

// NoopFireGuard always grants the claim. Idempotency then rests on lastFired alone.
type NoopFireGuard struct{}

func (NoopFireGuard) Claim(context.Context, int64, time.Time) (bool, error) { return true, nil }

func (NoopFireGuard) Release(context.Context, int64, time.Time) error { return nil }
