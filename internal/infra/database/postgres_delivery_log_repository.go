// internal/infra/database/postgres_delivery_log_repository.go
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"course_trigger_engine/internal/domain/delivery"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresDeliveryLogRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewPostgresDeliveryLogRepository(db *sqlx.DB, queryTimeout time.Duration) *PostgresDeliveryLogRepository {
	return &PostgresDeliveryLogRepository{db: db, queryTimeout: queryTimeout}
}

// Append inserts one entry. Failures to reach the database are wrapped with
// delivery.ErrAuditUnavailable; a row rejected by the server is returned as is.
func (r *PostgresDeliveryLogRepository) Append(ctx context.Context, e *delivery.LogEntry) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `INSERT INTO notification_delivery_logs
                  (id, schedule_id, recipient_user_id, recipient_address, status, error_detail, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ScheduleID, e.RecipientUserID, e.RecipientAddress, e.Status, e.ErrorDetail, e.CreatedAt)
	if err != nil {
		if storeUnreachable(err) {
			return fmt.Errorf("%w: appending delivery log for schedule %d: %w", delivery.ErrAuditUnavailable, e.ScheduleID, err)
		}
		return fmt.Errorf("error appending delivery log for schedule %d: %w", e.ScheduleID, err)
	}
	return nil
}

// storeUnreachable reports whether err means the database could not take the
// write at all, as opposed to refusing this particular row.
func storeUnreachable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", // connection exception
			"53", // insufficient resources
			"57": // operator intervention, e.g. admin shutdown
			return true
		}
		return pqErr.Code.Name() == "undefined_table"
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
