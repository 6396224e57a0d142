// internal/domain/module/module.go
package module

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotDue is returned by Publish when the module is no longer a due draft,
// e.g. it was published or rescheduled concurrently.
var ErrNotDue = errors.New("module is not a due draft")

// State of a course module.
type State string

const (
	StateDraft     State = "DRAFT"
	StatePublished State = "PUBLISHED"
)

// Module is a publishable unit of course content.
// Corresponds to the 'course_modules' table.
type Module struct {
	ID                 int64
	CourseID           int64
	Title              string
	State              State
	ScheduledPublishAt sql.NullTime
	PublishedAt        sql.NullTime
}

// DueAt reports whether the module is a draft whose scheduled publication time is at or before now.
func (m *Module) DueAt(now time.Time) bool {
	return m.State == StateDraft && m.ScheduledPublishAt.Valid && !m.ScheduledPublishAt.Time.After(now)
}
