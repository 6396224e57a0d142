// internal/domain/schedule/schedule.go
package schedule

import (
	"database/sql"
	"time"

	"course_trigger_engine/internal/domain/notification"
)

// FireWindow is the minimum distance between two firings of the same schedule.
// A schedule whose lastFired lies inside this window of the current pass is skipped.
const FireWindow = time.Minute

// Course is the content unit a schedule belongs to.
type Course struct {
	ID    int64
	Title string
}

// Definition is an author-defined recurring message bound to a course.
// Corresponds to the 'notification_schedules' table.
type Definition struct {
	ID         int64
	Course     Course
	AuthorID   int64
	Title      string
	Message    string
	Kind       notification.Kind
	Expression string // five-field time expression, literals or "*" only
	Enabled    bool
	LastFired  sql.NullTime // minute of the last successful firing; NULL = never fired
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FiredWithin reports whether the schedule already fired less than FireWindow before now.
// A lastFired later than now (clock skew) also counts as fired.
func (d *Definition) FiredWithin(now time.Time) bool {
	if !d.LastFired.Valid {
		return false
	}
	return now.Sub(d.LastFired.Time) < FireWindow
}
