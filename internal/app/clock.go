// internal/app/clock.go
package app

import "time"

// Clock provides the current instant to a pass.
type Clock interface {
	Now() time.Time
}

// WallClock reports the system time in a fixed location.
type WallClock struct {
	Location *time.Location
}

func NewWallClock(loc *time.Location) WallClock {
	if loc == nil {
		loc = time.UTC
	}
	return WallClock{Location: loc}
}

func (c WallClock) Now() time.Time {
	return time.Now().In(c.Location)
}
