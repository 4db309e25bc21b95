// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-trending-notifier/internal/bot"
	"github-trending-notifier/internal/clock"
	"github-trending-notifier/internal/config"
	"github-trending-notifier/internal/github"
	"github-trending-notifier/internal/history"
	"github-trending-notifier/internal/language"
	"github-trending-notifier/internal/notifier"
	"github-trending-notifier/internal/scheduler"
	"github-trending-notifier/internal/snapshot"
	"github-trending-notifier/internal/syncer"
	"github-trending-notifier/internal/trending"
)

// App wires every component from a Config. Both binaries build one and must
// call Close when done.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	Store    snapshot.Store
	Runs     history.Querier
	Notifier *notifier.Notifier
	Syncer   *syncer.Syncer

	botAPI *tgbotapi.BotAPI
	pool   *pgxpool.Pool
}

// New creates a fully wired App. When DB_URL is set the ledger schema is
// migrated and a connection pool opened; when TELEGRAM_TOKEN is set the bot
// credentials are verified against the Telegram API.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Clock:  clock.Real{},
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	source, err := newSource(cfg, httpClient, a.Clock, logger)
	if err != nil {
		return nil, err
	}
	validator := language.NewValidator(
		language.NewHTTPLister(cfg.TrendingAPIURL, httpClient),
		cfg.LanguageCacheTTL,
		a.Clock,
		logger.With("component", "language"),
	)
	fetcher := trending.NewFetcher(source, validator, logger.With("component", "fetcher"))

	a.Store, err = snapshot.NewStoreFromOptions(ctx, snapshot.Options{
		Backend:           cfg.SnapshotBackend,
		Dir:               cfg.SnapshotDir,
		S3Bucket:          cfg.S3Bucket,
		S3Prefix:          cfg.S3Prefix,
		S3Region:          cfg.S3Region,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	a.Runs = history.NopQuerier{}
	if cfg.DBURL != "" {
		if err := history.Migrate(cfg.DBURL); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		a.pool, err = pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.Runs = history.New(a.pool)
		logger.Info("Database connection established")
	}

	var messenger notifier.Messenger = notifier.NewLogMessenger(logger.With("component", "messenger"))
	if cfg.TelegramToken != "" {
		// No client timeout: long polling holds requests open.
		a.botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
		}
		logger.Info("Authorized telegram bot", "username", a.botAPI.Self.UserName)
		messenger = notifier.NewTelegramMessenger(a.botAPI)
	}
	a.Notifier = notifier.NewNotifier(messenger, cfg.TelegramChatID, cfg.DigestSize, logger.With("component", "notifier"))

	a.Syncer = syncer.NewSyncer(fetcher, a.Store, a.Notifier, a.Runs, a.Clock, cfg.Location, logger.With("component", "syncer"))
	return a, nil
}

func newSource(cfg *config.Config, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) (trending.Source, error) {
	switch cfg.SourceMode {
	case config.SourceAPI:
		return trending.NewAPISource(cfg.TrendingAPIURL, httpClient), nil
	case config.SourceScrape:
		return trending.NewScrapeSource(cfg.TrendingPageURL, httpClient), nil
	case config.SourceSearch:
		client, err := github.NewClient(cfg.GithubToken, httpClient, clk, logger.With("component", "github"))
		if err != nil {
			return nil, fmt.Errorf("creating github client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown source mode: %s", cfg.SourceMode)
	}
}

// Schedule returns the trigger specs derived from the configured anchors.
func (a *App) Schedule() syncer.Schedule {
	cfg := a.Config
	return syncer.Schedule{
		Language: cfg.DefaultLanguage,
		Daily:    scheduler.DailySpec(cfg.DailyAt.Hour, cfg.DailyAt.Minute),
		Weekly:   scheduler.WeeklySpec(cfg.WeeklyOn, cfg.WeeklyAt.Hour, cfg.WeeklyAt.Minute),
		Monthly:  scheduler.MonthlySpec(cfg.ScheduleMonthlyDay, cfg.MonthlyAt.Hour, cfg.MonthlyAt.Minute),
	}
}

// NewScheduler creates a scheduler with one trigger per period registered.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.Clock, a.Config.Location, a.Logger.With("component", "scheduler"))
	if err := a.Syncer.Register(sched, a.Schedule()); err != nil {
		return nil, err
	}
	return sched, nil
}

// Bot returns the command frontend, or nil when no telegram token is configured.
func (a *App) Bot() *bot.Bot {
	if a.botAPI == nil {
		return nil
	}
	return bot.New(a.botAPI, a.Syncer, a.Config.DigestSize, a.Config.DefaultLanguage, a.Logger.With("component", "bot"))
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
