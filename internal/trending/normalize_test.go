// internal/trending/normalize_test.go
package trending

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-trending-notifier/internal/model"
)

func strPtr(s string) *string { return &s }

func TestNormalize_APIRecord(t *testing.T) {
	testCases := []struct {
		name string
		raw  APIRecord
		want model.Repository
	}{
		{
			name: "drops unrecognized keys",
			raw: APIRecord{
				"author": "a", "url": "u", "stars": float64(100), "forks": float64(10),
				"language": "python", "extra": "x",
			},
			want: model.Repository{Author: "a", URL: "u", Stars: 100, Forks: 10, Language: strPtr("python")},
		},
		{
			name: "derives full name from author and name",
			raw:  APIRecord{"author": "golang", "name": "go", "url": "https://github.com/golang/go", "stars": json.Number("5")},
			want: model.Repository{Author: "golang", Name: "go", FullName: "golang/go", URL: "https://github.com/golang/go", Stars: 5},
		},
		{
			name: "missing fields become zero values",
			raw:  APIRecord{},
			want: model.Repository{},
		},
		{
			name: "non-string language becomes null",
			raw:  APIRecord{"author": "a", "url": "u", "language": float64(3)},
			want: model.Repository{Author: "a", URL: "u"},
		},
		{
			name: "string counts are coerced",
			raw:  APIRecord{"author": "a", "url": "u", "stars": "1,234", "forks": "oops"},
			want: model.Repository{Author: "a", URL: "u", Stars: 1234},
		},
		{
			name: "negative counts clamp to zero",
			raw:  APIRecord{"author": "a", "url": "u", "stars": float64(-3), "forks": json.Number("-1")},
			want: model.Repository{Author: "a", URL: "u"},
		},
		{
			name: "description is kept",
			raw:  APIRecord{"author": "a", "url": "u", "description": "fast"},
			want: model.Repository{Author: "a", URL: "u", Description: strPtr("fast")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

func TestNormalize_ScrapedRecord(t *testing.T) {
	repo := Normalize(&ScrapedRecord{
		Author:      " owner ",
		Name:        "repo",
		URL:         "https://github.com/owner/repo",
		Description: "  ",
		Language:    "Go",
		Stars:       42,
		Forks:       7,
	})

	require.NotNil(t, repo.StarsToday)
	assert.Equal(t, 0, *repo.StarsToday)
	assert.Equal(t, "owner/repo", repo.FullName)
	assert.Equal(t, "owner", repo.Author)
	assert.Nil(t, repo.Description)
	require.NotNil(t, repo.Language)
	assert.Equal(t, "Go", *repo.Language)
	assert.Equal(t, 42, repo.Stars)
}

func TestNormalize_JSONShape(t *testing.T) {
	repo := Normalize(APIRecord{"author": "a", "url": "u", "stars": float64(100), "forks": float64(10), "language": "python", "extra": "x"})

	data, err := json.Marshal(repo)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"author", "url", "stars", "forks", "language"}, keys)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 1234, ParseCount(" 1,234 "))
	assert.Equal(t, 0, ParseCount(""))
	assert.Equal(t, 0, ParseCount("n/a"))
	assert.Equal(t, 0, ParseCount("-4"))
}
