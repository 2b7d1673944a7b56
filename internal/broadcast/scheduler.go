package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/eventbot/core/logger"
)

// Job is what the scheduler runs each time the schedule fires.
type Job func(ctx context.Context) (Result, error)

// Scheduler fires a Job on a standard five-field cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	job      Job

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler parses spec in loc. It does not start the clock.
func NewScheduler(spec string, loc *time.Location, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("broadcast: nil job")
	}
	if loc == nil {
		loc = time.Local
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("broadcast: invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		schedule: schedule,
		spec:     spec,
		job:      job,
		ctx:      context.Background(),
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.fire))
	return s, nil
}

// Start begins firing. Runs use ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	logger.Broadcast.Info("scheduler started",
		slog.String("event", "broadcast.schedule"),
		slog.String("schedule", s.spec),
		slog.Time("next", s.Next(time.Now())),
	)
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports when the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.cron.Location()))
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if _, err := s.job(ctx); err != nil {
		logger.Broadcast.Error("scheduled run failed",
			slog.String("event", "broadcast.schedule"),
			logger.Err(err),
		)
	}
}

// cronLogger routes cron's own diagnostics into the broadcast logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Broadcast.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Broadcast.Error(msg, append([]any{"err", err.Error()}, keysAndValues...)...)
}
