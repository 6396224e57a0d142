// internal/infra/database/postgres_enrollment_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"course_trigger_engine/internal/domain/enrollment"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // For pq.Array
)

// Enrollment statuses whose learners receive schedule notifications.
var eligibleStatuses = []string{string(enrollment.StatusActive)}

type recipientRow struct {
	UserID      int64  `db:"user_id"`
	Email       string `db:"email"`
	DisplayName string `db:"display_name"`
}

type PostgresEnrollmentRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewPostgresEnrollmentRepository(db *sqlx.DB, queryTimeout time.Duration) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{db: db, queryTimeout: queryTimeout}
}

// ListActiveRecipients reads the whole recipient set in one statement.
func (r *PostgresEnrollmentRepository) ListActiveRecipients(ctx context.Context, courseID int64) ([]*enrollment.Recipient, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `SELECT u.id AS user_id, u.email, u.display_name
              FROM course_enrollments e
              JOIN users u ON u.id = e.user_id
              WHERE e.course_id = $1 AND e.status = ANY($2)
              ORDER BY u.id`

	var rows []recipientRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, pq.Array(eligibleStatuses)); err != nil {
		return nil, fmt.Errorf("error listing recipients for course %d: %w", courseID, err)
	}

	recipients := make([]*enrollment.Recipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, &enrollment.Recipient{
			UserID:      row.UserID,
			Email:       row.Email,
			DisplayName: row.DisplayName,
		})
	}
	return recipients, nil
}
