// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Upstream strategies selectable with SOURCE_MODE.
const (
	SourceAPI    = "api"
	SourceScrape = "scrape"
	SourceSearch = "search"
)

// Snapshot backends selectable with SNAPSHOT_BACKEND.
const (
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
	BackendS3         = "s3"
)

// TimeOfDay is a wall clock time parsed from HH:MM.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Config holds all configuration for the application.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramChatID string `mapstructure:"TELEGRAM_CHAT_ID"`
	DigestSize     int    `mapstructure:"DIGEST_SIZE"`

	DefaultLanguage  string        `mapstructure:"DEFAULT_LANGUAGE"`
	SourceMode       string        `mapstructure:"SOURCE_MODE"`
	TrendingAPIURL   string        `mapstructure:"TRENDING_API_URL"`
	TrendingPageURL  string        `mapstructure:"TRENDING_PAGE_URL"`
	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	HTTPTimeout      time.Duration `mapstructure:"HTTP_TIMEOUT"`
	LanguageCacheTTL time.Duration `mapstructure:"LANGUAGE_CACHE_TTL"`

	SnapshotBackend   string `mapstructure:"SNAPSHOT_BACKEND"`
	SnapshotDir       string `mapstructure:"SNAPSHOT_DIR"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Prefix          string `mapstructure:"S3_PREFIX"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`

	DBURL    string `mapstructure:"DB_URL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	ScheduleTimezone    string `mapstructure:"SCHEDULE_TIMEZONE"`
	ScheduleDailyTime   string `mapstructure:"SCHEDULE_DAILY_TIME"`
	ScheduleWeeklyDay   string `mapstructure:"SCHEDULE_WEEKLY_DAY"`
	ScheduleWeeklyTime  string `mapstructure:"SCHEDULE_WEEKLY_TIME"`
	ScheduleMonthlyDay  int    `mapstructure:"SCHEDULE_MONTHLY_DAY"`
	ScheduleMonthlyTime string `mapstructure:"SCHEDULE_MONTHLY_TIME"`

	Location  *time.Location `mapstructure:"-"`
	DailyAt   TimeOfDay      `mapstructure:"-"`
	WeeklyOn  time.Weekday   `mapstructure:"-"`
	WeeklyAt  TimeOfDay      `mapstructure:"-"`
	MonthlyAt TimeOfDay      `mapstructure:"-"`
}

var defaults = map[string]any{
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"TELEGRAM_TOKEN":        "",
	"TELEGRAM_CHAT_ID":      "",
	"DIGEST_SIZE":           5,
	"DEFAULT_LANGUAGE":      "",
	"SOURCE_MODE":           SourceAPI,
	"TRENDING_API_URL":      "https://api.gitterapp.com",
	"TRENDING_PAGE_URL":     "https://github.com",
	"GITHUB_TOKEN":          "",
	"HTTP_TIMEOUT":          "15s",
	"LANGUAGE_CACHE_TTL":    "30m",
	"SNAPSHOT_BACKEND":      BackendFilesystem,
	"SNAPSHOT_DIR":          "repos",
	"S3_BUCKET":             "",
	"S3_PREFIX":             "",
	"S3_REGION":             "us-east-1",
	"S3_ENDPOINT":           "",
	"S3_ACCESS_KEY_ID":      "",
	"S3_SECRET_ACCESS_KEY":  "",
	"DB_URL":                "",
	"HTTP_ADDR":             ":8080",
	"SCHEDULE_TIMEZONE":     "UTC",
	"SCHEDULE_DAILY_TIME":   "00:00",
	"SCHEDULE_WEEKLY_DAY":   "monday",
	"SCHEDULE_WEEKLY_TIME":  "00:00",
	"SCHEDULE_MONTHLY_DAY":  1,
	"SCHEDULE_MONTHLY_TIME": "00:00",
}

// LoadConfig reads configuration from a .env file in the working directory
// and/or environment variables. Environment variables take precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Every key needs a default, otherwise AutomaticEnv values are invisible to Unmarshal.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates the raw values and fills the derived fields.
func (c *Config) resolve() error {
	c.SourceMode = strings.ToLower(strings.TrimSpace(c.SourceMode))
	switch c.SourceMode {
	case SourceAPI, SourceScrape, SourceSearch:
	default:
		return fmt.Errorf("SOURCE_MODE must be one of api, scrape or search, got %q", c.SourceMode)
	}

	c.SnapshotBackend = strings.ToLower(strings.TrimSpace(c.SnapshotBackend))
	switch c.SnapshotBackend {
	case BackendFilesystem:
		if c.SnapshotDir == "" {
			return errors.New("SNAPSHOT_DIR is required for the filesystem backend")
		}
	case BackendMemory:
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND must be one of filesystem, memory or s3, got %q", c.SnapshotBackend)
	}

	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.DigestSize <= 0 {
		return errors.New("DIGEST_SIZE must be a positive integer")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	if c.LanguageCacheTTL < 0 {
		return errors.New("LANGUAGE_CACHE_TTL must not be negative")
	}
	c.DefaultLanguage = strings.TrimSpace(c.DefaultLanguage)

	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.DailyAt, err = parseTimeOfDay("SCHEDULE_DAILY_TIME", c.ScheduleDailyTime); err != nil {
		return err
	}
	if c.WeeklyAt, err = parseTimeOfDay("SCHEDULE_WEEKLY_TIME", c.ScheduleWeeklyTime); err != nil {
		return err
	}
	if c.MonthlyAt, err = parseTimeOfDay("SCHEDULE_MONTHLY_TIME", c.ScheduleMonthlyTime); err != nil {
		return err
	}
	if c.WeeklyOn, err = parseWeekday(c.ScheduleWeeklyDay); err != nil {
		return err
	}
	// Days past 28 would skip short months.
	if c.ScheduleMonthlyDay < 1 || c.ScheduleMonthlyDay > 28 {
		return fmt.Errorf("SCHEDULE_MONTHLY_DAY must be between 1 and 28, got %d", c.ScheduleMonthlyDay)
	}

	return nil
}

func parseTimeOfDay(key, value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%s must be in HH:MM format (e.g. 09:30), got %q", key, value)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("SCHEDULE_WEEKLY_DAY must be a weekday name (e.g. monday), got %q", value)
}
