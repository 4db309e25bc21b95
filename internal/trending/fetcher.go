// internal/trending/fetcher.go
package trending

import (
	"context"
	"log/slog"
	"strings"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
)

// Source retrieves raw trending records from one upstream strategy.
type Source interface {
	Name() string
	Fetch(ctx context.Context, period model.Period, language string) ([]RawRecord, error)
}

// LanguageValidator reports whether a language filter is recognized.
type LanguageValidator interface {
	IsValidLanguage(ctx context.Context, name string) bool
}

// Fetcher validates a trending request, calls the configured source and
// normalizes the result. Upstream failures never reach the caller.
type Fetcher struct {
	source    Source
	languages LanguageValidator
	logger    *slog.Logger
}

// NewFetcher creates a new Fetcher instance.
func NewFetcher(source Source, languages LanguageValidator, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source:    source,
		languages: languages,
		logger:    logger,
	}
}

// FetchTrending returns the ranked trending repositories for period and an
// optional language filter. It fails only with *errors.ErrInvalidPeriod or
// *errors.ErrInvalidLanguage; transport failures yield an empty slice and a log line.
func (f *Fetcher) FetchTrending(ctx context.Context, period string, language string) ([]model.Repository, error) {
	p := model.Period(period)
	if !p.Valid() {
		return nil, &custom_errors.ErrInvalidPeriod{Period: period}
	}

	language = strings.TrimSpace(language)
	if language != "" && !f.languages.IsValidLanguage(ctx, language) {
		return nil, &custom_errors.ErrInvalidLanguage{Language: language}
	}

	logger := f.logger.With("source", f.source.Name(), "period", period, "language", model.LanguageLabel(language))

	raw, err := f.source.Fetch(ctx, p, language)
	if err != nil {
		fetchErr := &custom_errors.UpstreamFetchError{Source: f.source.Name(), Err: err}
		logger.Warn("Upstream fetch failed, returning no repositories", "error", fetchErr)
		return []model.Repository{}, nil
	}

	repos := make([]model.Repository, 0, len(raw))
	for i, r := range raw {
		repo := Normalize(r)
		if err := repo.Validate(); err != nil {
			logger.Warn("Dropping invalid repository record", "rank", i+1, "error", err)
			continue
		}
		repos = append(repos, repo)
	}

	if len(repos) == 0 {
		logger.Info("No trending repositories returned by upstream")
	} else {
		logger.Info("Fetched trending repositories", "count", len(repos))
	}
	return repos, nil
}
