// internal/language/validator.go
package language

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github-trending-notifier/internal/clock"
)

// Language is one entry of the upstream known-language list.
type Language struct {
	Name     string `json:"name"`
	URLParam string `json:"urlParam,omitempty"`
}

// Lister fetches the current known-language set.
type Lister interface {
	ListLanguages(ctx context.Context) ([]Language, error)
}

// Validator answers whether a language filter is recognized by the upstream source.
// Successful lookups are cached for ttl; a zero ttl fetches on every call.
type Validator struct {
	lister Lister
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	known     map[string]struct{}
	fetchedAt time.Time
}

// NewValidator creates a new Validator instance.
func NewValidator(lister Lister, ttl time.Duration, clk clock.Clock, logger *slog.Logger) *Validator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Validator{
		lister: lister,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

// IsValidLanguage reports whether name matches, case-insensitively, a known language.
// Empty input is rejected without touching the network. A failed lookup is logged
// and treated as an empty known-language set.
func (v *Validator) IsValidLanguage(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	known, err := v.knownLanguages(ctx)
	if err != nil {
		v.logger.Warn("Failed to fetch known languages", "language", name, "error", err)
		return false
	}

	_, ok := known[strings.ToLower(name)]
	return ok
}

func (v *Validator) knownLanguages(ctx context.Context) (map[string]struct{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	if v.known != nil && v.ttl > 0 && now.Sub(v.fetchedAt) < v.ttl {
		return v.known, nil
	}

	languages, err := v.lister.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		if l.Name == "" {
			continue
		}
		known[strings.ToLower(l.Name)] = struct{}{}
	}
	v.logger.Debug("Refreshed known languages", "count", len(known))

	if v.ttl > 0 {
		v.known = known
		v.fetchedAt = now
	}
	return known, nil
}

// HTTPLister reads the known-language list from a JSON endpoint.
type HTTPLister struct {
	url    string
	client *http.Client
}

// NewHTTPLister creates a lister for {baseURL}/languages.
func NewHTTPLister(baseURL string, client *http.Client) *HTTPLister {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLister{
		url:    strings.TrimRight(baseURL, "/") + "/languages",
		client: client,
	}
}

// ListLanguages fetches and decodes the language list.
func (l *HTTPLister) ListLanguages(ctx context.Context) ([]Language, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, l.url)
	}

	var languages []Language
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		return nil, fmt.Errorf("decoding language list: %w", err)
	}
	return languages, nil
}
