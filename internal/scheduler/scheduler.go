// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github-trending-notifier/internal/clock"
)

// Job is the work run when a trigger fires.
type Job func(ctx context.Context)

// Trigger fires a job at calendar boundaries described by a cron schedule.
// It holds its own next fire time; a trigger whose previous run is still in
// flight skips the boundary instead of overlapping.
type Trigger struct {
	name     string
	schedule cron.Schedule
	job      Job

	next    time.Time
	running atomic.Bool
}

// Name returns the trigger's name.
func (t *Trigger) Name() string { return t.name }

// Scheduler owns a set of independent triggers and dispatches them from a single loop.
type Scheduler struct {
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger

	mu       sync.Mutex
	triggers []*Trigger
	cancel   context.CancelFunc
	loopDone chan struct{}
	runs     sync.WaitGroup
}

// New creates a scheduler that evaluates schedules in loc.
func New(clk clock.Clock, loc *time.Location, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		clock:    clk,
		location: loc,
		logger:   logger,
	}
}

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Add registers a job under name with a five-field cron spec. The first fire
// time is computed from the scheduler's clock.
func (s *Scheduler) Add(name, spec string, job Job) (*Trigger, error) {
	schedule, err := specParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule for %s: %w", name, err)
	}

	t := &Trigger{name: name, schedule: schedule, job: job}
	t.next = schedule.Next(s.clock.Now().In(s.location))

	s.mu.Lock()
	s.triggers = append(s.triggers, t)
	s.mu.Unlock()

	s.logger.Info("Registered trigger", "trigger", name, "spec", spec, "next", t.next)
	return t, nil
}

// Start runs the dispatch loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.loopDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.loop(ctx)
	}()
}

// Stop ends the dispatch loop and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.loopDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.runs.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		next, ok := s.earliest()
		if !ok {
			s.logger.Warn("Scheduler has no triggers")
			<-ctx.Done()
			return
		}

		timer := time.NewTimer(max(next.Sub(s.clock.Now()), 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scheduler shutting down", "reason", ctx.Err())
			return
		case <-timer.C:
			s.FireDue(ctx, s.clock.Now())
		}
	}
}

func (s *Scheduler) earliest() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest time.Time
	for _, t := range s.triggers {
		if earliest.IsZero() || t.next.Before(earliest) {
			earliest = t.next
		}
	}
	return earliest, !earliest.IsZero()
}

// FireDue starts every trigger due at now in its own goroutine and advances
// its next fire time past now. It returns the names of the triggers started.
func (s *Scheduler) FireDue(ctx context.Context, now time.Time) []string {
	now = now.In(s.location)

	s.mu.Lock()
	var due []*Trigger
	var nexts []time.Time
	for _, t := range s.triggers {
		if t.next.After(now) {
			continue
		}
		t.next = t.schedule.Next(now)
		due = append(due, t)
		nexts = append(nexts, t.next)
	}
	s.mu.Unlock()

	var fired []string
	for i, t := range due {
		if !t.running.CompareAndSwap(false, true) {
			s.logger.Warn("Skipping trigger, previous run still in progress", "trigger", t.name)
			continue
		}
		fired = append(fired, t.name)

		s.runs.Add(1)
		go func(t *Trigger, next time.Time) {
			defer s.runs.Done()
			defer t.running.Store(false)
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Trigger run panicked", "trigger", t.name, "panic", r)
				}
			}()

			s.logger.Info("Trigger fired", "trigger", t.name, "next", next)
			t.job(ctx)
		}(t, nexts[i])
	}
	return fired
}

// NextFire returns the next time the named trigger is due.
func (s *Scheduler) NextFire(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.triggers {
		if t.name == name {
			return t.next, true
		}
	}
	return time.Time{}, false
}

// Wait blocks until every run started so far has returned.
func (s *Scheduler) Wait() {
	s.runs.Wait()
}

// DailySpec fires every day at hour:minute.
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// WeeklySpec fires every week on weekday at hour:minute.
func WeeklySpec(weekday time.Weekday, hour, minute int) string {
	return fmt.Sprintf("%d %d * * %d", minute, hour, int(weekday))
}

// MonthlySpec fires every month on day at hour:minute.
func MonthlySpec(day, hour, minute int) string {
	return fmt.Sprintf("%d %d %d * *", minute, hour, day)
}
