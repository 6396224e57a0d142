// internal/app/publication_gate.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"course_trigger_engine/internal/domain/module"

	"github.com/sirupsen/logrus"
)

// PublicationResult counts what one gate pass did.
type PublicationResult struct {
	Published int
	Failed    int
	Skipped   int // not due when rechecked or when the update ran
}

// PublicationGate flips due draft modules to PUBLISHED.
type PublicationGate struct {
	modules module.Repository
	log     *logrus.Entry
}

func NewPublicationGate(modules module.Repository, logger *logrus.Entry) *PublicationGate {
	return &PublicationGate{
		modules: modules,
		log:     logger.WithField("component", "publication_gate"),
	}
}

// RunPass publishes every module due at now. A failure on one module is
// counted and the scan continues.
func (g *PublicationGate) RunPass(ctx context.Context, now time.Time) (PublicationResult, error) {
	var res PublicationResult
	ctx = context.WithoutCancel(ctx)
	log := g.log.WithField("run_id", RunIDFromContext(ctx))

	due, err := g.modules.ListDue(ctx, now)
	if err != nil {
		return res, fmt.Errorf("list due modules: %w", err)
	}

	for _, m := range due {
		mlog := log.WithFields(logrus.Fields{"module_id": m.ID, "course_id": m.CourseID})
		if !m.DueAt(now) {
			res.Skipped++
			mlog.WithField("state", m.State).Warn("Listed module is not a due draft, skipped")
			continue
		}
		err := g.modules.Publish(ctx, m.ID, now)
		switch {
		case err == nil:
			res.Published++
			mlog.WithField("scheduled_at", m.ScheduledPublishAt.Time).Info("Module published")
		case errors.Is(err, module.ErrNotDue):
			res.Skipped++
			mlog.Debug("Module no longer due, skipped")
		default:
			res.Failed++
			mlog.WithError(err).Error("Failed to publish module")
		}
	}

	if len(due) > 0 {
		log.WithFields(logrus.Fields{
			"published": res.Published,
			"failed":    res.Failed,
			"skipped":   res.Skipped,
		}).Info("Publication pass finished")
	}
	return res, nil
}
