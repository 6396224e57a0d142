package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"course_trigger_engine/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls chan struct{}
	err   error
}

func (r *countingRunner) Run(ctx context.Context) (app.RunSummary, error) {
	if _, ok := ctx.Deadline(); ok {
		return app.RunSummary{}, errors.New("run must not carry a deadline")
	}
	r.calls <- struct{}{}
	return app.RunSummary{}, r.err
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestStart_RejectsInvalidSpec(t *testing.T) {
	s := NewTriggerScheduler(&countingRunner{}, "every minute please", time.UTC, quietLogger())

	err := s.Start()

	assert.ErrorContains(t, err, "could not add trigger cron job")
}

func TestTick_RunsWithoutDeadline(t *testing.T) {
	runner := &countingRunner{calls: make(chan struct{}, 1), err: errors.New("audit down")}
	s := NewTriggerScheduler(runner, "* * * * *", time.UTC, quietLogger())

	s.tick()

	select {
	case <-runner.calls:
	default:
		t.Fatal("runner was not called")
	}
}

func TestStartStop(t *testing.T) {
	s := NewTriggerScheduler(&countingRunner{calls: make(chan struct{}, 1)}, "@every 1h", time.UTC, quietLogger())

	assert.NoError(t, s.Start())
	assert.NotPanics(t, s.Stop)
}
