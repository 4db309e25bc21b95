// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github-trending-notifier/internal/clock"
	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/history"
	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/scheduler"
	"github-trending-notifier/internal/snapshot"
)

const (
	// Number of periods collected in parallel by RunAll
	concurrency = 3
)

// TrendingFetcher is satisfied by *trending.Fetcher.
type TrendingFetcher interface {
	FetchTrending(ctx context.Context, period string, language string) ([]model.Repository, error)
}

// DigestNotifier is satisfied by *notifier.Notifier.
type DigestNotifier interface {
	Notify(ctx context.Context, period model.Period, language string, records []model.Repository)
}

// Result describes what a collection produced.
type Result struct {
	Period      model.Period
	Language    string
	CaptureDate time.Time
	Records     []model.Repository
	// Location is set only when the snapshot was written.
	Location string
}

// Schedule holds the cron specs for the three periodic triggers and the
// language filter they collect.
type Schedule struct {
	Language string
	Daily    string
	Weekly   string
	Monthly  string
}

// Syncer orchestrates one fetch -> persist -> notify cycle and records it.
type Syncer struct {
	fetcher  TrendingFetcher
	store    snapshot.Store
	notifier DigestNotifier
	runs     history.Querier
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger
}

// NewSyncer creates a new Syncer instance. Capture dates are computed in loc.
func NewSyncer(fetcher TrendingFetcher, store snapshot.Store, notifier DigestNotifier, runs history.Querier, clk clock.Clock, loc *time.Location, logger *slog.Logger) *Syncer {
	if runs == nil {
		runs = history.NopQuerier{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Syncer{
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		runs:     runs,
		clock:    clk,
		location: loc,
		logger:   logger,
	}
}

// Collect fetches the trending repositories and persists them as today's
// snapshot. Validation failures return no records. A *errors.StorageWriteError
// is returned together with the fetched records. Empty results are not persisted.
func (s *Syncer) Collect(ctx context.Context, period, language string) (Result, error) {
	language = strings.TrimSpace(language)
	records, err := s.fetcher.FetchTrending(ctx, period, language)
	if err != nil {
		return Result{}, err
	}

	p := model.Period(period)
	res := Result{
		Period:      p,
		Language:    language,
		CaptureDate: s.captureDate(),
		Records:     records,
	}
	logger := s.logger.With("period", p, "language", model.LanguageLabel(language))

	if len(records) == 0 {
		logger.Info("Nothing to persist")
		return res, nil
	}

	key := snapshot.Key(p, language, res.CaptureDate)
	if err := s.store.Save(ctx, key, records); err != nil {
		logger.Error("Failed to persist snapshot", "key", key, "error", err)
		return res, err
	}
	res.Location = s.store.Location(key)
	logger.Info("Snapshot persisted", "location", res.Location, "count", len(records))
	return res, nil
}

// Run performs a full cycle. The digest is sent whenever the fetch succeeded,
// even if persisting failed. The run is recorded in the ledger; ledger errors
// are logged only.
func (s *Syncer) Run(ctx context.Context, period, language string) (Result, error) {
	started := s.clock.Now()
	res, err := s.Collect(ctx, period, language)

	var periodErr *custom_errors.ErrInvalidPeriod
	var languageErr *custom_errors.ErrInvalidLanguage
	validationFailed := errors.As(err, &periodErr) || errors.As(err, &languageErr)
	if !validationFailed {
		s.notifier.Notify(ctx, res.Period, res.Language, res.Records)
	}

	s.record(ctx, period, strings.TrimSpace(language), started, res, err)
	return res, err
}

// RunAll runs a cycle for every period concurrently. Individual failures are
// logged and joined into the returned error.
func (s *Syncer) RunAll(ctx context.Context, language string) error {
	var g errgroup.Group
	g.SetLimit(concurrency)

	periods := model.Periods()
	errs := make([]error, len(periods))
	for i, p := range periods {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			if _, err := s.Run(ctx, p.String(), language); err != nil {
				s.logger.Error("Run failed", "period", p, "language", model.LanguageLabel(language), "error", err)
				errs[i] = fmt.Errorf("%s: %w", p, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Register adds one trigger per period to sched.
func (s *Syncer) Register(sched *scheduler.Scheduler, schedule Schedule) error {
	specs := map[model.Period]string{
		model.Daily:   schedule.Daily,
		model.Weekly:  schedule.Weekly,
		model.Monthly: schedule.Monthly,
	}
	for _, p := range model.Periods() {
		period := p
		_, err := sched.Add(period.String(), specs[period], func(ctx context.Context) {
			if _, err := s.Run(ctx, period.String(), schedule.Language); err != nil {
				s.logger.Error("Scheduled run failed", "period", period, "language", model.LanguageLabel(schedule.Language), "error", err)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads the snapshot captured on date.
func (s *Syncer) LoadSnapshot(ctx context.Context, period, language string, date time.Time) ([]model.Repository, error) {
	p := model.Period(period)
	if !p.Valid() {
		return nil, &custom_errors.ErrInvalidPeriod{Period: period}
	}
	return s.store.Load(ctx, snapshot.Key(p, strings.TrimSpace(language), date))
}

func (s *Syncer) captureDate() time.Time {
	now := s.clock.Now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Syncer) record(ctx context.Context, period, language string, started time.Time, res Result, runErr error) {
	run := history.Run{
		ID:          uuid.New(),
		Period:      period,
		Language:    language,
		CaptureDate: res.CaptureDate,
		Location:    res.Location,
		RecordCount: len(res.Records),
		Status:      history.StatusSucceeded,
		StartedAt:   started,
		FinishedAt:  s.clock.Now(),
	}
	if run.CaptureDate.IsZero() {
		run.CaptureDate = s.captureDate()
	}
	switch {
	case runErr != nil:
		run.Status = history.StatusFailed
		run.Error = runErr.Error()
	case len(res.Records) == 0:
		run.Status = history.StatusEmpty
	}

	if err := s.runs.InsertRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record run", "run_id", run.ID, "error", err)
	}
}
