// internal/domain/module/repository.go
package module

import (
	"context"
	"time"
)

type Repository interface {
	// ListDue returns DRAFT modules with a scheduled publication time at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*Module, error)
	// Publish atomically flips a due draft to PUBLISHED and clears its scheduled time.
	// Returns ErrNotDue when the module no longer qualifies.
	Publish(ctx context.Context, moduleID int64, now time.Time) error
}
