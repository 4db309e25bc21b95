// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-trending-notifier/internal/clock"
	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/trending"
)

const (
	searchDateLayout = "2006-01-02"
	searchPageSize   = 25
)

// Client is a wrapper around the go-github client that approximates trending
// repositories with the search API: repositories created inside the period
// window, ranked by stars.
type Client struct {
	gh     *github.Client
	clock  clock.Clock
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// Secondary rate limits are waited out by the transport; a non-empty token
// authenticates every request.
func NewClient(token string, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) (*Client, error) {
	var base http.RoundTripper
	if httpClient != nil {
		base = httpClient.Transport
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(base, github_ratelimit.WithSingleSleepLimit(time.Minute, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}

	client := &http.Client{Transport: transport}
	if httpClient != nil {
		client.Timeout = httpClient.Timeout
	}
	if clk == nil {
		clk = clock.Real{}
	}

	return &Client{
		gh:     github.NewClient(client),
		clock:  clk,
		logger: logger,
	}, nil
}

func (c *Client) Name() string { return "search" }

// Fetch runs the search query for period and language and returns the hits in rank order.
func (c *Client) Fetch(ctx context.Context, period model.Period, language string) ([]trending.RawRecord, error) {
	query := searchQuery(period, language, c.clock.Now())
	c.logger.Debug("Searching repositories", "query", query)

	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: searchPageSize},
	}
	result, _, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	records := make([]trending.RawRecord, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		records = append(records, toRawRecord(repo))
	}
	return records, nil
}

// searchQuery builds e.g. `created:>=2024-10-22 language:"go"`.
func searchQuery(period model.Period, language string, now time.Time) string {
	var since time.Time
	switch period {
	case model.Weekly:
		since = now.AddDate(0, 0, -7)
	case model.Monthly:
		since = now.AddDate(0, -1, 0)
	default:
		since = now.AddDate(0, 0, -1)
	}

	query := "created:>=" + since.Format(searchDateLayout)
	if language != "" {
		query += fmt.Sprintf(" language:%q", language)
	}
	return query
}

// toRawRecord translates a github.Repository into the API record shape the
// normalizer understands.
func toRawRecord(r *github.Repository) trending.APIRecord {
	rec := trending.APIRecord{
		"author": r.GetOwner().GetLogin(),
		"name":   r.GetName(),
		"url":    r.GetHTMLURL(),
		"stars":  r.GetStargazersCount(),
		"forks":  r.GetForksCount(),
	}
	if r.Language != nil {
		rec["language"] = r.GetLanguage()
	}
	if r.Description != nil {
		rec["description"] = r.GetDescription()
	}
	return rec
}
