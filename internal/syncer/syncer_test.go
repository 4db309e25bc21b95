// internal/syncer/syncer_test.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/history"
	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/scheduler"
	"github-trending-notifier/internal/snapshot"
	"github-trending-notifier/internal/testutil"
)

// MockFetcher is a mock of the TrendingFetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchTrending(ctx context.Context, period string, language string) ([]model.Repository, error) {
	args := m.Called(ctx, period, language)
	records, _ := args.Get(0).([]model.Repository)
	return records, args.Error(1)
}

// MockNotifier is a mock of the DigestNotifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, period model.Period, language string, records []model.Repository) {
	m.Called(ctx, period, language, records)
}

// MockQuerier is a mock of the history.Querier interface.
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) InsertRun(ctx context.Context, run history.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockQuerier) ListRuns(ctx context.Context, arg history.ListRunsParams) ([]history.Run, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]history.Run), args.Error(1)
}

// failingStore rejects every write.
type failingStore struct{}

func (failingStore) Location(key string) string { return "/readonly/" + key }

func (f failingStore) Save(_ context.Context, key string, _ []model.Repository) error {
	return &custom_errors.StorageWriteError{Path: f.Location(key), Err: errors.New("permission denied")}
}

func (f failingStore) Load(_ context.Context, key string) ([]model.Repository, error) {
	return nil, &custom_errors.StorageReadError{Path: f.Location(key), Err: errors.New("not found")}
}

func makeRecords(prefix string, n int) []model.Repository {
	records := make([]model.Repository, n)
	for i := range records {
		records[i] = model.Repository{
			Author: fmt.Sprintf("%s-author%d", prefix, i),
			URL:    fmt.Sprintf("https://github.com/%s/repo%d", prefix, i),
			Stars:  10 * (i + 1),
			Forks:  i,
		}
	}
	return records
}

func runWithStatus(status string) any {
	return mock.MatchedBy(func(r history.Run) bool { return r.Status == status })
}

func TestSyncer_Run(t *testing.T) {
	ctx := context.Background()
	clk := testutil.FixedClock()

	t.Run("fetches, persists, notifies and records", func(t *testing.T) {
		records := makeRecords("go", 3)
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "daily", "go").Return(records, nil).Once()
		notifier := new(MockNotifier)
		notifier.On("Notify", ctx, model.Daily, "go", records).Once()
		runs := new(MockQuerier)
		runs.On("InsertRun", ctx, mock.MatchedBy(func(r history.Run) bool {
			return r.Status == history.StatusSucceeded &&
				r.Period == "daily" &&
				r.Language == "go" &&
				r.RecordCount == 3 &&
				r.Location == "memory://daily/go/20241023.json" &&
				r.ID.String() != ""
		})).Return(nil).Once()
		store := snapshot.NewMemoryStore()

		s := NewSyncer(fetcher, store, notifier, runs, clk, time.UTC, testutil.DiscardLogger())
		res, err := s.Run(ctx, "daily", " go ")

		require.NoError(t, err)
		assert.Equal(t, "memory://daily/go/20241023.json", res.Location)
		assert.Equal(t, time.Date(2024, 10, 23, 0, 0, 0, 0, time.UTC), res.CaptureDate)
		saved, err := store.Load(ctx, "daily/go/20241023.json")
		require.NoError(t, err)
		assert.Equal(t, records, saved)
		fetcher.AssertExpectations(t)
		notifier.AssertExpectations(t)
		runs.AssertExpectations(t)
	})

	t.Run("empty result is not persisted but still notified", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "weekly", "").Return([]model.Repository{}, nil).Once()
		notifier := new(MockNotifier)
		notifier.On("Notify", ctx, model.Weekly, "", []model.Repository{}).Once()
		runs := new(MockQuerier)
		runs.On("InsertRun", ctx, runWithStatus(history.StatusEmpty)).Return(nil).Once()
		store := snapshot.NewMemoryStore()

		s := NewSyncer(fetcher, store, notifier, runs, clk, time.UTC, testutil.DiscardLogger())
		res, err := s.Run(ctx, "weekly", "")

		require.NoError(t, err)
		assert.Empty(t, res.Location)
		assert.Empty(t, store.Keys())
		notifier.AssertExpectations(t)
		runs.AssertExpectations(t)
	})

	t.Run("validation failure skips notification", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "yearly", "").Return(nil, &custom_errors.ErrInvalidPeriod{Period: "yearly"}).Once()
		notifier := new(MockNotifier)
		runs := new(MockQuerier)
		runs.On("InsertRun", ctx, mock.MatchedBy(func(r history.Run) bool {
			return r.Status == history.StatusFailed && strings.HasPrefix(r.Error, `invalid period: "yearly"`) && !r.CaptureDate.IsZero()
		})).Return(nil).Once()

		s := NewSyncer(fetcher, snapshot.NewMemoryStore(), notifier, runs, clk, time.UTC, testutil.DiscardLogger())
		_, err := s.Run(ctx, "yearly", "")

		var periodErr *custom_errors.ErrInvalidPeriod
		assert.ErrorAs(t, err, &periodErr)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		runs.AssertExpectations(t)
	})

	t.Run("persist failure does not suppress notification", func(t *testing.T) {
		records := makeRecords("all", 2)
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "monthly", "").Return(records, nil).Once()
		notifier := new(MockNotifier)
		notifier.On("Notify", ctx, model.Monthly, "", records).Once()
		runs := new(MockQuerier)
		runs.On("InsertRun", ctx, runWithStatus(history.StatusFailed)).Return(nil).Once()

		s := NewSyncer(fetcher, failingStore{}, notifier, runs, clk, time.UTC, testutil.DiscardLogger())
		res, err := s.Run(ctx, "monthly", "")

		var writeErr *custom_errors.StorageWriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, "/readonly/monthly/all_languages/20241023.json", writeErr.Path)
		assert.Equal(t, records, res.Records)
		assert.Empty(t, res.Location)
		notifier.AssertExpectations(t)
		runs.AssertExpectations(t)
	})

	t.Run("ledger failure is logged only", func(t *testing.T) {
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "daily", "").Return(makeRecords("x", 1), nil).Once()
		notifier := new(MockNotifier)
		notifier.On("Notify", ctx, model.Daily, "", mock.Anything).Once()
		runs := new(MockQuerier)
		runs.On("InsertRun", ctx, mock.Anything).Return(errors.New("connection refused")).Once()
		logger, logs := testutil.BufferLogger()

		s := NewSyncer(fetcher, snapshot.NewMemoryStore(), notifier, runs, clk, time.UTC, logger)
		_, err := s.Run(ctx, "daily", "")

		assert.NoError(t, err)
		assert.Contains(t, logs.String(), "Failed to record run")
	})

	t.Run("capture date follows the configured timezone", func(t *testing.T) {
		late := testutil.NewStubClock(time.Date(2024, 10, 23, 22, 0, 0, 0, time.UTC))
		fetcher := new(MockFetcher)
		fetcher.On("FetchTrending", ctx, "daily", "").Return(makeRecords("tz", 1), nil).Once()
		notifier := new(MockNotifier)
		notifier.On("Notify", ctx, model.Daily, "", mock.Anything).Once()
		store := snapshot.NewMemoryStore()

		s := NewSyncer(fetcher, store, notifier, nil, late, time.FixedZone("UTC+3", 3*60*60), testutil.DiscardLogger())
		_, err := s.Run(ctx, "daily", "")

		require.NoError(t, err)
		assert.Equal(t, []string{"daily/all_languages/20241024.json"}, store.Keys())
	})
}

func TestSyncer_RunAll(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockFetcher)
	for _, p := range model.Periods() {
		fetcher.On("FetchTrending", ctx, p.String(), "rust").Return(makeRecords(p.String(), 2), nil).Once()
	}
	notifier := new(MockNotifier)
	notifier.On("Notify", ctx, mock.Anything, "rust", mock.Anything).Times(3)
	store := snapshot.NewMemoryStore()

	s := NewSyncer(fetcher, store, notifier, history.NopQuerier{}, testutil.FixedClock(), time.UTC, testutil.DiscardLogger())
	require.NoError(t, s.RunAll(ctx, "rust"))

	assert.Equal(t, []string{
		"daily/rust/20241023.json",
		"monthly/rust/20241023.json",
		"weekly/rust/20241023.json",
	}, store.Keys())
	fetcher.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSyncer_RunAll_JoinsErrors(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockFetcher)
	fetcher.On("FetchTrending", ctx, mock.Anything, "cobol").Return(nil, &custom_errors.ErrInvalidLanguage{Language: "cobol"})

	s := NewSyncer(fetcher, snapshot.NewMemoryStore(), new(MockNotifier), nil, testutil.FixedClock(), time.UTC, testutil.DiscardLogger())
	err := s.RunAll(ctx, "cobol")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `daily: invalid language: "cobol"`)
	assert.Contains(t, err.Error(), `monthly: invalid language: "cobol"`)
	fetcher.AssertNumberOfCalls(t, "FetchTrending", 3)
}

// recordingNotifier captures notified periods. Safe for concurrent use.
type recordingNotifier struct {
	mu      sync.Mutex
	periods []model.Period
}

func (r *recordingNotifier) Notify(_ context.Context, period model.Period, _ string, _ []model.Repository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods = append(r.periods, period)
}

func TestSyncer_Register_CoincidingTriggers(t *testing.T) {
	// 2024-07-01 is a Monday and the first of the month.
	clk := testutil.NewStubClock(time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC))
	fetcher := new(MockFetcher)
	for _, p := range model.Periods() {
		fetcher.On("FetchTrending", mock.Anything, p.String(), "").Return(makeRecords(p.String(), 1), nil).Once()
	}
	notifier := &recordingNotifier{}
	store := snapshot.NewMemoryStore()
	logger := testutil.DiscardLogger()

	s := NewSyncer(fetcher, store, notifier, nil, clk, time.UTC, logger)
	sched := scheduler.New(clk, time.UTC, logger)
	require.NoError(t, s.Register(sched, Schedule{
		Daily:   scheduler.DailySpec(0, 0),
		Weekly:  scheduler.WeeklySpec(time.Monday, 0, 0),
		Monthly: scheduler.MonthlySpec(1, 0, 0),
	}))

	boundary := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(boundary)
	assert.Len(t, sched.FireDue(context.Background(), boundary), 3)
	sched.Wait()

	assert.Equal(t, []string{
		"daily/all_languages/20240701.json",
		"monthly/all_languages/20240701.json",
		"weekly/all_languages/20240701.json",
	}, store.Keys())
	assert.ElementsMatch(t, []model.Period{model.Daily, model.Weekly, model.Monthly}, notifier.periods)
	fetcher.AssertExpectations(t)
}

func TestSyncer_Register_InvalidSpec(t *testing.T) {
	logger := testutil.DiscardLogger()
	s := NewSyncer(new(MockFetcher), snapshot.NewMemoryStore(), new(MockNotifier), nil, testutil.FixedClock(), time.UTC, logger)
	sched := scheduler.New(testutil.FixedClock(), time.UTC, logger)

	err := s.Register(sched, Schedule{Daily: "bogus"})
	assert.ErrorContains(t, err, "parsing schedule for daily")
}

func TestSyncer_LoadSnapshot(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	records := makeRecords("py", 2)
	date := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, snapshot.Key(model.Weekly, "python", date), records))

	s := NewSyncer(new(MockFetcher), store, new(MockNotifier), nil, testutil.FixedClock(), time.UTC, testutil.DiscardLogger())

	got, err := s.LoadSnapshot(ctx, "weekly", "Python", date)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = s.LoadSnapshot(ctx, "weekly", "go", date)
	var readErr *custom_errors.StorageReadError
	assert.ErrorAs(t, err, &readErr)

	_, err = s.LoadSnapshot(ctx, "hourly", "", date)
	var periodErr *custom_errors.ErrInvalidPeriod
	assert.ErrorAs(t, err, &periodErr)
}
