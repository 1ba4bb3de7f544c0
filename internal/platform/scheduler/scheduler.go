package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var schedulerTracer = otel.Tracer("live-scores/internal/platform/scheduler")

// TaskFunc is one firing of a job.
type TaskFunc func(ctx context.Context) error

type job struct {
	name    string
	every   time.Duration
	hour    int
	minute  int
	daily   bool
	timeout time.Duration
	task    TaskFunc
}

// Scheduler runs independent periodic jobs. Firings of the same job never overlap;
// different jobs run concurrently.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []job
	running bool
	logger  *logging.Logger
	now     func() time.Time
}

func New(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		logger: logger,
		now:    time.Now,
	}
}

// Every registers task to run at a fixed interval. timeout bounds a single firing when positive.
func (s *Scheduler) Every(name string, interval, timeout time.Duration, task TaskFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be > 0", name)
	}
	return s.add(job{name: name, every: interval, timeout: timeout, task: task})
}

// DailyAt registers task to run once a day at clock ("HH:MM", UTC).
func (s *Scheduler) DailyAt(name, clock string, timeout time.Duration, task TaskFunc) error {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	return s.add(job{name: name, daily: true, hour: hour, minute: minute, timeout: timeout, task: task})
}

func (s *Scheduler) add(j job) error {
	if j.task == nil {
		return fmt.Errorf("job %s: task is required", j.name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("job %s: scheduler already running", j.name)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Run blocks until ctx is cancelled and every job loop has returned.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	var wg conc.WaitGroup
	for _, j := range jobs {
		wg.Go(func() {
			if j.daily {
				s.runDaily(ctx, j)
				return
			}
			s.runEvery(ctx, j)
		})
	}
	s.logger.Info("scheduler started", "jobs", len(jobs))
	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runEvery(ctx context.Context, j job) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, j)
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context, j job) {
	for {
		wait := NextDailyRun(s.now(), j.hour, j.minute).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx, j)
		}
	}
}

// fire runs one firing in the caller's goroutine, recovering panics so the loop survives.
func (s *Scheduler) fire(ctx context.Context, j job) {
	ctx, span := schedulerTracer.Start(ctx, "scheduler."+j.name)
	defer span.End()

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	startedAt := s.now()
	var err error
	var catcher panics.Catcher
	catcher.Try(func() { err = j.task(ctx) })

	if recovered := catcher.Recovered(); recovered != nil {
		span.RecordError(recovered.AsError())
		span.SetStatus(codes.Error, "panic")
		s.logger.ErrorContext(ctx, "scheduled job panicked", "job", j.name, "panic", recovered.String())
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "scheduled job failed", "job", j.name, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "scheduled job done", "job", j.name, "duration", s.now().Sub(startedAt))
}

// ParseClock parses "HH:MM" in 24h form.
func ParseClock(clock string) (int, int, error) {
	hourText, minuteText, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, 0, fmt.Errorf("clock %q must be HH:MM", clock)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("clock %q has an invalid hour", clock)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q has an invalid minute", clock)
	}
	return hour, minute, nil
}

// NextDailyRun returns the next UTC instant strictly after now at hour:minute.
func NextDailyRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
