// internal/snapshot/snapshot.go
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github-trending-notifier/internal/model"
)

const (
	// AllLanguagesDir is the partition used when no language filter applies.
	AllLanguagesDir = "all_languages"
	dateLayout      = "20060102"
	fileExt         = ".json"
)

// Store persists and reloads snapshots. Save reports failures as
// *errors.StorageWriteError and Load as *errors.StorageReadError.
type Store interface {
	Save(ctx context.Context, key string, records []model.Repository) error
	Load(ctx context.Context, key string) ([]model.Repository, error)
	// Location returns a human readable address for key, e.g. a file path or s3 URI.
	Location(key string) string
}

// Key returns the slash separated snapshot key
// {period}/{language|all_languages}/{YYYYMMDD}.json.
func Key(period model.Period, language string, captureDate time.Time) string {
	return path.Join(period.String(), languageDir(language), captureDate.Format(dateLayout)+fileExt)
}

func languageDir(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return AllLanguagesDir
	}
	return strings.NewReplacer("/", "_", `\`, "_").Replace(language)
}

// ParseDate parses a YYYYMMDD capture date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("capture date must be YYYYMMDD: %w", err)
	}
	return t, nil
}

// Encode renders records as indented JSON with sorted keys and source order preserved.
func Encode(records []model.Repository) ([]byte, error) {
	if records == nil {
		records = []model.Repository{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot body produced by Encode.
func Decode(data []byte) ([]model.Repository, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var records []model.Repository
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		return nil, fmt.Errorf("snapshot body is not an array")
	}
	return records, nil
}
