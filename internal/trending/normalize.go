// internal/trending/normalize.go
package trending

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github-trending-notifier/internal/model"
)

// RawRecord is a source-specific repository shape. It is either an APIRecord or a
// ScrapedRecord; both are converted by Normalize into a model.Repository.
type RawRecord interface {
	rawRecord()
}

// APIRecord is a decoded JSON object from a REST upstream. Its keys are not
// predictable; only recognized keys survive normalization.
type APIRecord map[string]any

func (APIRecord) rawRecord() {}

// ScrapedRecord is one entry parsed from a trending listing page.
type ScrapedRecord struct {
	Author      string
	Name        string
	URL         string
	Description string
	Language    string
	Stars       int
	Forks       int
	StarsToday  int
}

func (ScrapedRecord) rawRecord() {}

// Normalize copies the recognized fields of r into a canonical repository,
// dropping everything else.
func Normalize(r RawRecord) model.Repository {
	switch rec := r.(type) {
	case APIRecord:
		return normalizeAPIRecord(rec)
	case *ScrapedRecord:
		return normalizeScrapedRecord(*rec)
	case ScrapedRecord:
		return normalizeScrapedRecord(rec)
	default:
		return model.Repository{}
	}
}

func normalizeAPIRecord(rec APIRecord) model.Repository {
	repo := model.Repository{
		Author:      stringField(rec, "author"),
		Name:        stringField(rec, "name"),
		URL:         stringField(rec, "url"),
		Stars:       intField(rec, "stars"),
		Forks:       intField(rec, "forks"),
		Language:    optionalString(rec, "language"),
		Description: optionalString(rec, "description"),
	}
	repo.FullName = fullName(repo.Author, repo.Name)
	return repo
}

func normalizeScrapedRecord(rec ScrapedRecord) model.Repository {
	repo := model.Repository{
		Author:     strings.TrimSpace(rec.Author),
		Name:       strings.TrimSpace(rec.Name),
		URL:        rec.URL,
		Stars:      max(rec.Stars, 0),
		Forks:      max(rec.Forks, 0),
		StarsToday: intPtr(max(rec.StarsToday, 0)),
	}
	if lang := strings.TrimSpace(rec.Language); lang != "" {
		repo.Language = &lang
	}
	if desc := strings.TrimSpace(rec.Description); desc != "" {
		repo.Description = &desc
	}
	repo.FullName = fullName(repo.Author, repo.Name)
	return repo
}

func fullName(author, name string) string {
	if author == "" || name == "" {
		return ""
	}
	return author + "/" + name
}

func stringField(rec APIRecord, key string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return ""
}

// optionalString returns nil for missing, null or non-string values.
func optionalString(rec APIRecord, key string) *string {
	s, ok := rec[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// intField coerces numeric-looking values to a non-negative int. Anything else is 0.
func intField(rec APIRecord, key string) int {
	var n int64
	switch v := rec[key].(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			i = int64(f)
		}
		n = i
	case string:
		n = int64(ParseCount(v))
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

// ParseCount parses human formatted counts such as "1,234" or "12". Unparseable input is 0.
func ParseCount(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func intPtr(n int) *int { return &n }
