// internal/trending/scrape_source.go
package trending

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github-trending-notifier/internal/model"
)

// scrapeLimit is the number of entries taken from the top of the listing page.
const scrapeLimit = 10

var starsTodayPattern = regexp.MustCompile(`([\d,]+)\s+stars\s+(?:today|this week|this month)`)

// ScrapeSource parses the trending listing page at {baseURL}/trending[/{language}]?since={period}.
type ScrapeSource struct {
	baseURL string
	client  *http.Client
}

// NewScrapeSource creates a new ScrapeSource instance.
func NewScrapeSource(baseURL string, client *http.Client) *ScrapeSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &ScrapeSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *ScrapeSource) Name() string { return "scrape" }

// Fetch downloads and parses the listing page.
func (s *ScrapeSource) Fetch(ctx context.Context, period model.Period, language string) ([]RawRecord, error) {
	pageURL := s.baseURL + "/trending"
	if language != "" {
		pageURL += "/" + url.PathEscape(strings.ToLower(language))
	}
	pageURL += "?since=" + url.QueryEscape(period.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing trending page: %w", err)
	}
	return s.parse(doc), nil
}

func (s *ScrapeSource) parse(doc *goquery.Document) []RawRecord {
	var records []RawRecord
	doc.Find("article.Box-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(records) >= scrapeLimit {
			return false
		}
		if rec, ok := s.parseRow(row); ok {
			records = append(records, rec)
		}
		return true
	})
	return records
}

func (s *ScrapeSource) parseRow(row *goquery.Selection) (*ScrapedRecord, bool) {
	href, ok := row.Find("h2 a").First().Attr("href")
	if !ok {
		return nil, false
	}
	parts := strings.Split(strings.Trim(strings.TrimSpace(href), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, false
	}

	rec := &ScrapedRecord{
		Author:      parts[0],
		Name:        parts[1],
		URL:         s.baseURL + "/" + parts[0] + "/" + parts[1],
		Description: collapseSpace(row.Find("p").First().Text()),
		Language:    collapseSpace(row.Find(`[itemprop="programmingLanguage"]`).First().Text()),
		Stars:       ParseCount(row.Find(`a[href$="/stargazers"]`).First().Text()),
		Forks:       ParseCount(row.Find(`a[href$="/forks"], a[href$="/network/members"]`).First().Text()),
	}

	// A missing marker leaves StarsToday at zero.
	if m := starsTodayPattern.FindStringSubmatch(row.Text()); m != nil {
		rec.StarsToday = ParseCount(m[1])
	}
	return rec, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
