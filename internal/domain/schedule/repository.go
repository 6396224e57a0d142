// internal/domain/schedule/repository.go
package schedule

import (
	"context"
	"errors"
	"time"
)

// ErrStaleFire is returned by MarkFired when the stored lastFired is already
// at or after the given instant.
var ErrStaleFire = errors.New("schedule already marked fired at or after this instant")

type Repository interface {
	// ListEnabled returns every enabled schedule together with its course.
	ListEnabled(ctx context.Context) ([]*Definition, error)
	// MarkFired advances lastFired to firedAt. The update never moves lastFired backwards.
	MarkFired(ctx context.Context, scheduleID int64, firedAt time.Time) error
}
