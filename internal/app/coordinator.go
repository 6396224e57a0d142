// internal/app/coordinator.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"course_trigger_engine/internal/domain/delivery"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunSummary is the merged outcome of one externally triggered pass.
type RunSummary struct {
	RunID                  uuid.UUID `json:"runId"`
	StartedAt              time.Time `json:"startedAt"`
	DurationMs             int64     `json:"durationMs"`
	NotificationsProcessed int       `json:"notificationsProcessed"`
	SchedulesFired         int       `json:"schedulesFired"`
	InvalidSchedules       int       `json:"invalidSchedules"`
	NotificationsSent      int       `json:"notificationsSent"`
	NotificationErrors     int       `json:"notificationErrors"`
	UnitsPublished         int       `json:"unitsPublished"`
	PublicationErrors      int       `json:"publicationErrors"`
}

// HasErrors reports whether any delivery, schedule or publication step failed.
func (s RunSummary) HasErrors() bool {
	return s.NotificationErrors > 0 || s.PublicationErrors > 0
}

// Dispatcher runs the notification phase of a pass.
type Dispatcher interface {
	RunPass(ctx context.Context, now time.Time) (DispatchResult, error)
}

// Publisher runs the publication phase of a pass.
type Publisher interface {
	RunPass(ctx context.Context, now time.Time) (PublicationResult, error)
}

// RunObserver is notified after every pass, including failed ones.
type RunObserver interface {
	ObserveRun(ctx context.Context, summary RunSummary, err error)
}

// RunCoordinator is the single entry point invoked by external periodic callers.
// It holds no scheduling state of its own; concurrent Run calls are safe.
type RunCoordinator struct {
	publisher  Publisher
	dispatcher Dispatcher
	clock      Clock
	observers  []RunObserver
	log        *logrus.Entry

	mu      sync.RWMutex
	lastRun *RunSummary
}

func NewRunCoordinator(publisher Publisher, dispatcher Dispatcher, clock Clock, logger *logrus.Entry, observers ...RunObserver) *RunCoordinator {
	return &RunCoordinator{
		publisher:  publisher,
		dispatcher: dispatcher,
		clock:      clock,
		observers:  observers,
		log:        logger.WithField("component", "coordinator"),
	}
}

// Run publishes due modules, then dispatches due notifications, both at the
// same instant. Phase failures are logged and counted. Only an audit store
// failure is returned, together with the partial summary. Cancelling ctx does
// not interrupt a pass once started.
func (c *RunCoordinator) Run(ctx context.Context) (RunSummary, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	now := c.clock.Now()
	summary := RunSummary{RunID: uuid.New(), StartedAt: now}

	ctx = WithRunID(ctx, summary.RunID)
	log := c.log.WithField("run_id", summary.RunID)
	log.WithField("now", now.Format(time.RFC3339)).Info("Run started")

	// Content must be visible before notifications that reference it fire.
	var pub PublicationResult
	err := guardPhase("publication", func() error {
		var err error
		pub, err = c.publisher.RunPass(ctx, now)
		return err
	})
	summary.UnitsPublished = pub.Published
	summary.PublicationErrors = pub.Failed
	if err != nil {
		summary.PublicationErrors++
		log.WithError(err).Error("Publication phase failed")
	}

	var disp DispatchResult
	err = guardPhase("notification", func() error {
		var err error
		disp, err = c.dispatcher.RunPass(ctx, now)
		return err
	})
	summary.NotificationsProcessed = disp.Processed
	summary.SchedulesFired = disp.Fired
	summary.InvalidSchedules = disp.Invalid
	summary.NotificationsSent = disp.Sent
	summary.NotificationErrors = disp.Failed + disp.Errors

	var fatal error
	if err != nil {
		summary.NotificationErrors++
		if errors.Is(err, delivery.ErrAuditUnavailable) {
			fatal = err
			log.WithError(err).Error("Notification phase aborted, audit store unavailable")
		} else {
			log.WithError(err).Error("Notification phase failed")
		}
	}

	summary.DurationMs = time.Since(started).Milliseconds()
	c.remember(summary)
	for _, o := range c.observers {
		o.ObserveRun(ctx, summary, fatal)
	}

	log.WithFields(logrus.Fields{
		"processed":         summary.NotificationsProcessed,
		"sent":              summary.NotificationsSent,
		"notification_errs": summary.NotificationErrors,
		"published":         summary.UnitsPublished,
		"publication_errs":  summary.PublicationErrors,
		"duration_ms":       summary.DurationMs,
	}).Info("Run finished")

	return summary, fatal
}

// LastRun returns the summary of the most recent completed pass.
func (c *RunCoordinator) LastRun() (RunSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastRun == nil {
		return RunSummary{}, false
	}
	return *c.lastRun, true
}

func (c *RunCoordinator) remember(s RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRun = &s
}

func guardPhase(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s phase panicked: %v", name, r)
		}
	}()
	return fn()
}
