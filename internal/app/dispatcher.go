// internal/app/dispatcher.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"course_trigger_engine/internal/domain/delivery"
	"course_trigger_engine/internal/domain/enrollment"
	"course_trigger_engine/internal/domain/mailer"
	"course_trigger_engine/internal/domain/notification"
	"course_trigger_engine/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DispatchResult counts what one dispatch pass did.
type DispatchResult struct {
	Processed int // enabled schedules examined
	Invalid   int // schedules whose expression failed to parse
	Fired     int // schedules that attempted delivery
	Sent      int
	Failed    int
	Errors    int // schedule-level failures: recipient resolution, lastFired update
}

// DispatcherOptions tune delivery fan-out.
type DispatcherOptions struct {
	Concurrency int           // parallel deliveries per schedule; <= 1 means sequential
	SendTimeout time.Duration // per-send deadline; 0 disables it
}

// NotificationDispatcher evaluates every enabled schedule against the pass
// instant and fans its message out to the resolved recipients.
type NotificationDispatcher struct {
	schedules   schedule.Repository
	resolver    *RecipientResolver
	channel     mailer.Channel
	deliveryLog delivery.Repository
	guard       FireGuard
	clock       Clock
	opts        DispatcherOptions
	log         *logrus.Entry
}

func NewNotificationDispatcher(
	schedules schedule.Repository,
	resolver *RecipientResolver,
	channel mailer.Channel,
	deliveryLog delivery.Repository,
	guard FireGuard,
	clock Clock,
	opts DispatcherOptions,
	logger *logrus.Entry,
) *NotificationDispatcher {
	if guard == nil {
		guard = NoopFireGuard{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &NotificationDispatcher{
		schedules:   schedules,
		resolver:    resolver,
		channel:     channel,
		deliveryLog: deliveryLog,
		guard:       guard,
		clock:       clock,
		opts:        opts,
		log:         logger.WithField("component", "dispatcher"),
	}
}

type fanOutResult struct {
	sent, failed int
	unaudited    int // attempts whose log row was rejected
}

// RunPass processes all enabled schedules at now. Only a listing failure or
// delivery.ErrAuditUnavailable is returned as an error; every other problem is
// confined to its schedule and counted. The pass ignores cancellation of ctx:
// each send is bounded by SendTimeout instead.
func (d *NotificationDispatcher) RunPass(ctx context.Context, now time.Time) (DispatchResult, error) {
	var res DispatchResult
	ctx = context.WithoutCancel(ctx)
	log := d.log.WithField("run_id", RunIDFromContext(ctx))

	defs, err := d.schedules.ListEnabled(ctx)
	if err != nil {
		return res, fmt.Errorf("list enabled schedules: %w", err)
	}

	minute := truncateToMinute(now)
	for _, def := range defs {
		res.Processed++

		schedLog := log.WithFields(logrus.Fields{"schedule_id": def.ID, "course_id": def.Course.ID})
		if err := d.dispatchSchedule(ctx, def, now, minute, &res, schedLog); err != nil {
			return res, err
		}
	}

	log.WithFields(logrus.Fields{
		"processed": res.Processed,
		"fired":     res.Fired,
		"sent":      res.Sent,
		"failed":    res.Failed,
		"errors":    res.Errors,
	}).Info("Dispatch pass finished")
	return res, nil
}

func (d *NotificationDispatcher) dispatchSchedule(ctx context.Context, def *schedule.Definition, now, minute time.Time, res *DispatchResult, log *logrus.Entry) error {
	matched, err := schedule.Matches(def.Expression, minute)
	if err != nil {
		res.Invalid++
		log.WithError(err).WithField("expression", def.Expression).Warn("Schedule expression is invalid, schedule will never fire")
		return nil
	}
	if !matched {
		return nil
	}

	if def.FiredWithin(now) {
		log.WithField("last_fired", def.LastFired.Time).Debug("Schedule already fired in this window, skipping")
		return nil
	}

	claimed, err := d.guard.Claim(ctx, def.ID, minute)
	if err != nil {
		log.WithError(err).Warn("Fire guard unavailable, relying on lastFired only")
		claimed = true
	}
	if !claimed {
		log.Debug("Schedule minute claimed by another pass, skipping")
		return nil
	}

	recipients, err := d.resolver.Resolve(ctx, def)
	if err != nil {
		res.Errors++
		log.WithError(err).Error("Failed to resolve recipients, schedule skipped for this pass")
		d.release(ctx, def.ID, minute, log)
		return nil
	}
	if len(recipients) == 0 {
		log.Info("Schedule has no active recipients, nothing to send")
		d.release(ctx, def.ID, minute, log)
		return nil
	}

	res.Fired++
	out, err := d.fanOut(ctx, def, recipients, log)
	res.Sent += out.sent
	res.Failed += out.failed
	res.Errors += out.unaudited
	if err != nil {
		return err
	}

	if err := d.schedules.MarkFired(ctx, def.ID, minute); err != nil {
		if errors.Is(err, schedule.ErrStaleFire) {
			log.Warn("lastFired already advanced by a concurrent pass")
			return nil
		}
		res.Errors++
		log.WithError(err).Error("Failed to record lastFired")
		return nil
	}

	log.WithFields(logrus.Fields{"sent": out.sent, "failed": out.failed}).Info("Schedule fired")
	return nil
}

// fanOut delivers to each recipient independently and writes one log entry per attempt.
// An unreachable audit store stops further attempts; a rejected single row does not.
func (d *NotificationDispatcher) fanOut(ctx context.Context, def *schedule.Definition, recipients []*enrollment.Recipient, log *logrus.Entry) (fanOutResult, error) {
	var (
		mu      sync.Mutex
		out     fanOutResult
		g       errgroup.Group
		aborted atomic.Bool
	)
	g.SetLimit(d.opts.Concurrency)

	for _, rcpt := range recipients {
		rcpt := rcpt
		g.Go(func() error {
			if aborted.Load() {
				return nil
			}
			msg := notification.Compose(def.Kind, def.Title, def.Message, notification.Bindings{
				User:   rcpt.DisplayName,
				Course: def.Course.Title,
			})

			sendErr := d.send(ctx, rcpt.Email, msg)
			entry := delivery.NewLogEntry(def.ID, rcpt.UserID, rcpt.Email, sendErr, d.clock.Now())
			appendErr := d.deliveryLog.Append(context.WithoutCancel(ctx), entry)

			mu.Lock()
			defer mu.Unlock()
			if sendErr != nil {
				out.failed++
				log.WithError(sendErr).WithField("recipient", rcpt.Email).Warn("Delivery failed")
			} else {
				out.sent++
			}

			switch {
			case appendErr == nil:
				return nil
			case errors.Is(appendErr, delivery.ErrAuditUnavailable):
				aborted.Store(true)
				return fmt.Errorf("schedule %d recipient %s: %w", def.ID, rcpt.Email, appendErr)
			default:
				out.unaudited++
				log.WithError(appendErr).WithFields(logrus.Fields{
					"recipient": rcpt.Email,
					"status":    entry.Status,
				}).Error("Delivery log row rejected")
				return nil
			}
		})
	}

	err := g.Wait()
	return out, err
}

// send calls the channel under the per-send deadline. A panicking channel is reported as a failed send.
func (d *NotificationDispatcher) send(ctx context.Context, address string, msg notification.Message) (err error) {
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery channel panic: %v", r)
		}
	}()
	return d.channel.Send(ctx, address, msg.Subject, msg.Body)
}

func (d *NotificationDispatcher) release(ctx context.Context, scheduleID int64, minute time.Time, log *logrus.Entry) {
	if err := d.guard.Release(ctx, scheduleID, minute); err != nil {
		log.WithError(err).Warn("Failed to release fire guard claim")
	}
}

func truncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
