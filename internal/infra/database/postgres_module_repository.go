// internal/infra/database/postgres_module_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"course_trigger_engine/internal/domain/module"

	"github.com/jmoiron/sqlx"
)

type moduleRow struct {
	ID                 int64        `db:"id"`
	CourseID           int64        `db:"course_id"`
	Title              string       `db:"title"`
	State              string       `db:"state"`
	ScheduledPublishAt sql.NullTime `db:"scheduled_publish_at"`
	PublishedAt        sql.NullTime `db:"published_at"`
}

type PostgresModuleRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewPostgresModuleRepository(db *sqlx.DB, queryTimeout time.Duration) *PostgresModuleRepository {
	return &PostgresModuleRepository{db: db, queryTimeout: queryTimeout}
}

func (r *PostgresModuleRepository) ListDue(ctx context.Context, now time.Time) ([]*module.Module, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `SELECT id, course_id, title, state, scheduled_publish_at, published_at
              FROM course_modules
              WHERE state = $1 AND scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= $2
              ORDER BY scheduled_publish_at, id`

	var rows []moduleRow
	if err := r.db.SelectContext(ctx, &rows, query, module.StateDraft, now); err != nil {
		return nil, fmt.Errorf("error listing due modules: %w", err)
	}

	modules := make([]*module.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, &module.Module{
			ID:                 row.ID,
			CourseID:           row.CourseID,
			Title:              row.Title,
			State:              module.State(row.State),
			ScheduledPublishAt: row.ScheduledPublishAt,
			PublishedAt:        row.PublishedAt,
		})
	}
	return modules, nil
}

// Publish re-checks the due condition inside the UPDATE so the flip is atomic.
func (r *PostgresModuleRepository) Publish(ctx context.Context, moduleID int64, now time.Time) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `UPDATE course_modules
              SET state = $1, scheduled_publish_at = NULL, published_at = $2, updated_at = NOW()
              WHERE id = $3 AND state = $4 AND scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= $2`
	res, err := r.db.ExecContext(ctx, query, module.StatePublished, now, moduleID, module.StateDraft)
	if err != nil {
		return fmt.Errorf("error publishing module %d: %w", moduleID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for module %d: %w", moduleID, err)
	}
	if affected == 0 {
		return module.ErrNotDue
	}
	return nil
}
