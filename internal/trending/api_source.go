// internal/trending/api_source.go
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github-trending-notifier/internal/model"
)

// APISource reads trending repositories from a REST endpoint that accepts
// `language` and `since` query parameters and returns a JSON array.
type APISource struct {
	endpoint string
	client   *http.Client
}

// NewAPISource creates a source for {baseURL}/repositories.
func NewAPISource(baseURL string, client *http.Client) *APISource {
	if client == nil {
		client = http.DefaultClient
	}
	return &APISource{
		endpoint: strings.TrimRight(baseURL, "/") + "/repositories",
		client:   client,
	}
}

func (s *APISource) Name() string { return "api" }

// Fetch issues the query and decodes every element as an APIRecord.
func (s *APISource) Fetch(ctx context.Context, period model.Period, language string) ([]RawRecord, error) {
	q := url.Values{}
	q.Set("language", language)
	q.Set("since", period.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, APIRecord(item))
	}
	return records, nil
}
