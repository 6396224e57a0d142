package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"course_trigger_engine/internal/domain/delivery"
	"course_trigger_engine/internal/domain/enrollment"
	"course_trigger_engine/internal/domain/module"
	"course_trigger_engine/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeScheduleRepo struct {
	mu        sync.Mutex
	defs      []*schedule.Definition
	listErr   error
	markErr   error
	markCalls int
}

func (r *fakeScheduleRepo) ListEnabled(context.Context) ([]*schedule.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*schedule.Definition, 0, len(r.defs))
	for _, d := range r.defs {
		if !d.Enabled {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeScheduleRepo) MarkFired(_ context.Context, id int64, firedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	if r.markErr != nil {
		return r.markErr
	}
	for _, d := range r.defs {
		if d.ID != id {
			continue
		}
		if d.LastFired.Valid && !d.LastFired.Time.Before(firedAt) {
			return schedule.ErrStaleFire
		}
		d.LastFired.Time, d.LastFired.Valid = firedAt, true
		return nil
	}
	return errors.New("schedule not found")
}

func (r *fakeScheduleRepo) get(id int64) *schedule.Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.defs {
		if d.ID == id {
			cp := *d
			return &cp
		}
	}
	return nil
}

type fakeEnrollmentRepo struct {
	mu       sync.Mutex
	byCourse map[int64][]*enrollment.Recipient
	err      error
	calls    int
}

func (r *fakeEnrollmentRepo) ListActiveRecipients(_ context.Context, courseID int64) ([]*enrollment.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.byCourse[courseID], nil
}

type sentMessage struct {
	Address, Subject, Body string
}

type fakeChannel struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
	panicOn string
	onSend  func(address string)
}

func (c *fakeChannel) Send(_ context.Context, address, subject, body string) error {
	if address == c.panicOn {
		panic("smtp exploded")
	}
	if c.onSend != nil {
		defer c.onSend(address)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{address, subject, body})
	if err, ok := c.failFor[address]; ok {
		return err
	}
	return nil
}

func (c *fakeChannel) messages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

type fakeDeliveryLog struct {
	mu          sync.Mutex
	entries     []*delivery.LogEntry
	err         error
	rejectFor   map[string]error
	honourCtx   bool // behave like a database driver and fail on a done context
	appendCalls int
}

func (r *fakeDeliveryLog) Append(ctx context.Context, e *delivery.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendCalls++
	if r.honourCtx {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if r.err != nil {
		return r.err
	}
	if err, ok := r.rejectFor[e.RecipientAddress]; ok {
		return err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeDeliveryLog) all() []*delivery.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*delivery.LogEntry(nil), r.entries...)
}

type fakeGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	claimErr error
	released int
}

func guardKey(id int64, minute time.Time) string {
	return fmt.Sprintf("%d@%s", id, minute.UTC().Format(time.RFC3339))
}

func (g *fakeGuard) Claim(_ context.Context, id int64, minute time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if g.held == nil {
		g.held = map[string]bool{}
	}
	k := guardKey(id, minute)
	if g.held[k] {
		return false, nil
	}
	g.held[k] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, id int64, minute time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, guardKey(id, minute))
	g.released++
	return nil
}

type fakeModuleRepo struct {
	mu           sync.Mutex
	modules      []*module.Module
	listErr      error
	publishErr   map[int64]error
	listUnfilter bool // return every module from ListDue, due or not
	publishCalls []int64
}

func (r *fakeModuleRepo) ListDue(_ context.Context, now time.Time) ([]*module.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*module.Module
	for _, m := range r.modules {
		if r.listUnfilter || m.DueAt(now) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeModuleRepo) Publish(_ context.Context, id int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishCalls = append(r.publishCalls, id)
	if err, ok := r.publishErr[id]; ok {
		return err
	}
	for _, m := range r.modules {
		if m.ID != id {
			continue
		}
		if !m.DueAt(now) {
			return module.ErrNotDue
		}
		m.State = module.StatePublished
		m.ScheduledPublishAt.Valid = false
		m.ScheduledPublishAt.Time = time.Time{}
		m.PublishedAt.Time, m.PublishedAt.Valid = now, true
		return nil
	}
	return module.ErrNotDue
}

func (r *fakeModuleRepo) get(id int64) module.Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.ID == id {
			return *m
		}
	}
	return module.Module{}
}
