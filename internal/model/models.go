// internal/model/models.go
package model

import (
	"errors"
	"strings"
	"time"
)

// Period is the trending time window requested from the upstream source.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// AllLanguages is the label used when no language filter is applied.
const AllLanguages = "all languages"

// Periods returns every supported period in cadence order.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly}
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func (p Period) String() string { return string(p) }

// Title returns the period with its first letter upper-cased, e.g. "Daily".
func (p Period) Title() string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Repository is the canonical trending repository record.
// Fields are declared in key order so the JSON encoding is key-sorted.
type Repository struct {
	Author      string  `json:"author"`
	Description *string `json:"description,omitempty"`
	Forks       int     `json:"forks"`
	FullName    string  `json:"full_name,omitempty"`
	Language    *string `json:"language"`
	Name        string  `json:"name,omitempty"`
	Stars       int     `json:"stars"`
	StarsToday  *int    `json:"stars_today,omitempty"`
	URL         string  `json:"url"`
}

// Validate checks the invariants every persisted record must hold.
func (r Repository) Validate() error {
	var errs []error
	if r.Author == "" {
		errs = append(errs, errors.New("author is required"))
	}
	if r.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if r.Stars < 0 {
		errs = append(errs, errors.New("stars must be non-negative"))
	}
	if r.Forks < 0 {
		errs = append(errs, errors.New("forks must be non-negative"))
	}
	if r.StarsToday != nil && *r.StarsToday < 0 {
		errs = append(errs, errors.New("stars_today must be non-negative"))
	}
	return errors.Join(errs...)
}

// Snapshot is an ordered, dated sequence of repositories for one period and language.
type Snapshot struct {
	Period      Period
	Language    string
	CaptureDate time.Time
	Records     []Repository
}

// LanguageLabel returns the language filter, or AllLanguages when none was applied.
func LanguageLabel(language string) string {
	if language == "" {
		return AllLanguages
	}
	return language
}
