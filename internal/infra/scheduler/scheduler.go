package scheduler

import (
	"context"
	"fmt"
	"time"

	"course_trigger_engine/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is the pass entry point the scheduler calls.
type Runner interface {
	Run(ctx context.Context) (app.RunSummary, error)
}

// TriggerScheduler is the in-process periodic caller of the run coordinator.
// A tick is skipped while the previous pass is still running.
type TriggerScheduler struct {
	cronEngine *cron.Cron
	runner     Runner
	cronSpec   string
	logger     *logrus.Entry
}

func NewTriggerScheduler(runner Runner, cronSpec string, loc *time.Location, logger *logrus.Entry) *TriggerScheduler {
	if loc == nil {
		loc = time.Local
	}
	log := logger.WithField("component", "scheduler")
	return &TriggerScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		runner:   runner,
		cronSpec: cronSpec,
		logger:   log,
	}
}

// Start registers the trigger job and starts the cron engine.
func (s *TriggerScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting trigger scheduler")

	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.tick); err != nil {
		return fmt.Errorf("could not add trigger cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.Info("Trigger scheduler started")
	return nil
}

// tick runs one pass without a deadline. Sends carry their own timeout.
func (s *TriggerScheduler) tick() {
	summary, err := s.runner.Run(context.Background())
	if err != nil {
		s.logger.WithError(err).WithField("run_id", summary.RunID).Error("Scheduled run aborted")
	}
}

// Stop stops new ticks and waits for a running pass to finish.
func (s *TriggerScheduler) Stop() {
	s.logger.Info("Stopping trigger scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Trigger scheduler gracefully stopped")
}
