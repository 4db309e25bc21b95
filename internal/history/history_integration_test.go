//go:build integration

// internal/history/history_integration_test.go
package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(connStr))
	// Applying twice is a no-op.
	require.NoError(t, Migrate(connStr))

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	teardown := func() {
		dbpool.Close()
		require.NoError(t, pgContainer.Terminate(ctx))
	}

	return dbpool, teardown
}

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	store := New(dbpool)
	base := time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC)

	runs := []Run{
		{ID: uuid.New(), Period: "daily", CaptureDate: base, Location: "repos/daily/all_languages/20241021.json", RecordCount: 25, Status: StatusSucceeded, StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: uuid.New(), Period: "weekly", Language: "go", CaptureDate: base, Status: StatusFailed, Error: "boom", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(2 * time.Minute)},
		{ID: uuid.New(), Period: "daily", CaptureDate: base.AddDate(0, 0, 1), Status: StatusEmpty, StartedAt: base.Add(24 * time.Hour), FinishedAt: base.Add(24 * time.Hour)},
	}
	for _, r := range runs {
		require.NoError(t, store.InsertRun(ctx, r))
	}

	daily, err := store.ListRuns(ctx, ListRunsParams{Period: "daily", Limit: 10})
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, runs[2].ID, daily[0].ID) // Order is by started_at DESC
	assert.Equal(t, runs[0].ID, daily[1].ID)
	assert.Equal(t, 25, daily[1].RecordCount)
	assert.Equal(t, "repos/daily/all_languages/20241021.json", daily[1].Location)

	all, err := store.ListRuns(ctx, ListRunsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "boom", all[1].Error)
}
