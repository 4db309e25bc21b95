// internal/history/history.go
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// Run is one fetch-persist-notify cycle as recorded in the ledger.
type Run struct {
	ID          uuid.UUID `json:"id"`
	Period      string    `json:"period"`
	Language    string    `json:"language"`
	CaptureDate time.Time `json:"capture_date"`
	Location    string    `json:"location"`
	RecordCount int       `json:"record_count"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// ListRunsParams filters ListRuns. An empty Period matches every period.
type ListRunsParams struct {
	Period string
	Limit  int32
}

// Querier is the ledger's data access surface.
type Querier interface {
	InsertRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error)
}

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements Querier on Postgres.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

const insertRun = `
INSERT INTO snapshot_runs (id, period, language, capture_date, location, record_count, status, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *Store) InsertRun(ctx context.Context, run Run) error {
	_, err := s.db.Exec(ctx, insertRun,
		run.ID,
		run.Period,
		run.Language,
		run.CaptureDate,
		run.Location,
		run.RecordCount,
		run.Status,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

const listRuns = `
SELECT id, period, language, capture_date, location, record_count, status, error, started_at, finished_at
FROM snapshot_runs
WHERE ($1 = '' OR period = $1)
ORDER BY started_at DESC
LIMIT $2`

func (s *Store) ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error) {
	rows, err := s.db.Query(ctx, listRuns, arg.Period, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID,
			&r.Period,
			&r.Language,
			&r.CaptureDate,
			&r.Location,
			&r.RecordCount,
			&r.Status,
			&r.Error,
			&r.StartedAt,
			&r.FinishedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// NopQuerier discards runs. Used when no database is configured.
type NopQuerier struct{}

func (NopQuerier) InsertRun(context.Context, Run) error { return nil }

func (NopQuerier) ListRuns(context.Context, ListRunsParams) ([]Run, error) { return []Run{}, nil }

// Migrate applies the embedded schema migrations to the database at dbURL.
func Migrate(dbURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
