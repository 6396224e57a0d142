// internal/domain/delivery/log_entry.go
package delivery

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrAuditUnavailable marks an audit store that cannot be reached at all. It aborts the pass.
// A row the store rejects on its own is not wrapped with it.
var ErrAuditUnavailable = errors.New("delivery audit store unavailable")

// Status is the outcome of one delivery attempt.
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// LogEntry is one delivery attempt. Entries are append-only.
// Corresponds to the 'notification_delivery_logs' table.
type LogEntry struct {
	ID               uuid.UUID
	ScheduleID       int64
	RecipientUserID  sql.NullInt64
	RecipientAddress string
	Status           Status
	ErrorDetail      sql.NullString // set only when Status is FAILED
	CreatedAt        time.Time
}

// NewLogEntry builds an entry for a single attempt. A nil sendErr records SENT.
func NewLogEntry(scheduleID, userID int64, address string, sendErr error, at time.Time) *LogEntry {
	e := &LogEntry{
		ID:               uuid.New(),
		ScheduleID:       scheduleID,
		RecipientUserID:  sql.NullInt64{Int64: userID, Valid: userID != 0},
		RecipientAddress: address,
		Status:           StatusSent,
		CreatedAt:        at,
	}
	if sendErr != nil {
		e.Status = StatusFailed
		e.ErrorDetail = sql.NullString{String: sendErr.Error(), Valid: true}
	}
	return e
}
