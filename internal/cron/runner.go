// Package cron runs the medication reminder check on a cron schedule
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/metrics"
	"github.com/gmsas95/medtrack/internal/store"
)

// DefaultSchedule checks for due doses once a minute
const DefaultSchedule = "@every 1m"

// Notifier delivers a due reminder. Returning an error leaves the reminder
// eligible for the next tick.
type Notifier func(ctx context.Context, reminder adherence.Reminder) error

// Config holds cron runner configuration
type Config struct {
	Schedule string // standard 5-field cron spec or descriptor such as "@every 1m"
}

type firedKey struct {
	medicationID string
	slot         adherence.TimeOfDay
	date         string
}

// Runner fires reminders for untaken doses that are due or overdue, at most
// once per medication, slot and day
type Runner struct {
	config   Config
	schedule robfigcron.Schedule
	store    *store.Store
	notify   Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cron    *robfigcron.Cron
	cancel  context.CancelFunc

	firedMu sync.Mutex
	fired   map[firedKey]struct{}
	lastDay string
}

var specParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

// NewRunner creates a new cron runner
func NewRunner(config Config, st *store.Store, notify Notifier, m *metrics.Metrics, logger *zap.Logger) (*Runner, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Default()
	}

	schedule, err := specParser.Parse(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", config.Schedule, err)
	}

	return &Runner{
		config:   config,
		schedule: schedule,
		store:    st,
		notify:   notify,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		fired:    make(map[firedKey]struct{}),
	}, nil
}

// WithClock replaces the time source used by scheduled ticks
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Start schedules the reminder check. It runs until Stop is called or ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("cron runner already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := robfigcron.New(robfigcron.WithChain(
		robfigcron.Recover(cronLogger{r.logger}),
		robfigcron.SkipIfStillRunning(cronLogger{r.logger}),
	))
	c.Schedule(r.schedule, robfigcron.FuncJob(func() {
		if _, err := r.Tick(runCtx, r.now()); err != nil {
			r.logger.Error("Reminder check failed", zap.Error(err))
		}
	}))
	c.Start()

	r.cron = c
	r.cancel = cancel
	r.running = true

	go func() {
		<-runCtx.Done()
		r.stop(c)
	}()

	r.logger.Info("Reminder runner started", zap.String("schedule", r.config.Schedule))
	return nil
}

// Stop stops the runner and waits for a running check to finish
func (r *Runner) Stop() {
	r.mu.Lock()
	c := r.cron
	r.mu.Unlock()
	r.stop(c)
}

func (r *Runner) stop(c *robfigcron.Cron) {
	r.mu.Lock()
	if !r.running || r.cron != c {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	r.logger.Info("Reminder runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Next returns when the check will next run after t
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t)
}

// Tick evaluates today's reminders at now and notifies the due ones not yet
// fired. It returns the reminders delivered by this call.
func (r *Runner) Tick(ctx context.Context, now time.Time) ([]adherence.Reminder, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	today := now.Format("2006-01-02")

	r.firedMu.Lock()
	defer r.firedMu.Unlock()

	if today != r.lastDay {
		r.fired = make(map[firedKey]struct{})
		r.lastDay = today
	}

	var delivered []adherence.Reminder
	for _, rem := range adherence.TodaysReminders(snap.Medications, snap.Events, now) {
		if !rem.IsDue() {
			continue
		}
		key := firedKey{medicationID: rem.Medication.ID, slot: rem.ScheduledTime, date: today}
		if _, done := r.fired[key]; done {
			continue
		}

		if r.notify != nil {
			if err := r.notify(ctx, rem); err != nil {
				r.logger.Warn("Reminder delivery failed",
					zap.String("medication_id", rem.Medication.ID),
					zap.String("slot", rem.ScheduledTime.String()),
					zap.Error(err),
				)
				continue
			}
		}

		r.fired[key] = struct{}{}
		r.metrics.RecordReminder(rem.Timing.Status.String())
		delivered = append(delivered, rem)

		r.logger.Debug("Reminder fired",
			zap.String("medication_id", rem.Medication.ID),
			zap.String("slot", rem.ScheduledTime.String()),
			zap.String("status", rem.Timing.Status.String()),
		)
	}

	return delivered, nil
}

// cronLogger adapts zap to the robfig cron logger interface
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
