// internal/infra/database/postgres_schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"course_trigger_engine/internal/domain/notification"
	"course_trigger_engine/internal/domain/schedule"

	"github.com/jmoiron/sqlx"
)

var ErrScheduleNotFound = fmt.Errorf("notification schedule not found")

type scheduleRow struct {
	ID          int64        `db:"id"`
	CourseID    int64        `db:"course_id"`
	CourseTitle string       `db:"course_title"`
	AuthorID    int64        `db:"author_id"`
	Title       string       `db:"title"`
	Message     string       `db:"message"`
	Kind        string       `db:"kind"`
	Expression  string       `db:"cron_expression"`
	Enabled     bool         `db:"enabled"`
	LastFiredAt sql.NullTime `db:"last_fired_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r scheduleRow) toDomain() *schedule.Definition {
	return &schedule.Definition{
		ID:         r.ID,
		Course:     schedule.Course{ID: r.CourseID, Title: r.CourseTitle},
		AuthorID:   r.AuthorID,
		Title:      r.Title,
		Message:    r.Message,
		Kind:       notification.ParseKind(r.Kind),
		Expression: r.Expression,
		Enabled:    r.Enabled,
		LastFired:  r.LastFiredAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type PostgresScheduleRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewPostgresScheduleRepository(db *sqlx.DB, queryTimeout time.Duration) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db, queryTimeout: queryTimeout}
}

func (r *PostgresScheduleRepository) ListEnabled(ctx context.Context) ([]*schedule.Definition, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `SELECT s.id, s.course_id, c.title AS course_title, s.author_id, s.title, s.message, s.kind,
                     s.cron_expression, s.enabled, s.last_fired_at, s.created_at, s.updated_at
              FROM notification_schedules s
              JOIN courses c ON c.id = s.course_id
              WHERE s.enabled
              ORDER BY s.id`

	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error listing enabled schedules: %w", err)
	}

	defs := make([]*schedule.Definition, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, row.toDomain())
	}
	return defs, nil
}

// MarkFired only moves last_fired_at forward, so two overlapping passes cannot regress it.
func (r *PostgresScheduleRepository) MarkFired(ctx context.Context, scheduleID int64, firedAt time.Time) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `UPDATE notification_schedules
              SET last_fired_at = $1, updated_at = NOW()
              WHERE id = $2 AND (last_fired_at IS NULL OR last_fired_at < $1)`
	res, err := r.db.ExecContext(ctx, query, firedAt, scheduleID)
	if err != nil {
		return fmt.Errorf("error marking schedule %d fired: %w", scheduleID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for schedule %d: %w", scheduleID, err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM notification_schedules WHERE id = $1)`, scheduleID); err != nil {
		return fmt.Errorf("error checking schedule %d: %w", scheduleID, err)
	}
	if !exists {
		return ErrScheduleNotFound
	}
	return schedule.ErrStaleFire
}
