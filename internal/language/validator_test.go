// internal/language/validator_test.go
package language

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-trending-notifier/internal/testutil"
)

// setupLanguageServer serves body with status and counts requests.
func setupLanguageServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		assert.Equal(t, "/languages", r.URL.Path)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &requestCount
}

func TestValidator_IsValidLanguage(t *testing.T) {
	server, _ := setupLanguageServer(t, http.StatusOK, `[{"name":"Python","urlParam":"python"},{"name":"Go","urlParam":"go"}]`)
	v := NewValidator(NewHTTPLister(server.URL, server.Client()), 0, nil, testutil.DiscardLogger())

	testCases := []struct {
		name     string
		language string
		want     bool
	}{
		{name: "exact match", language: "Python", want: true},
		{name: "case-insensitive match", language: "python", want: true},
		{name: "upper-case match", language: "GO", want: true},
		{name: "unknown language", language: "Ruby", want: false},
		{name: "made up language", language: "not_a_real_language", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.IsValidLanguage(context.Background(), tc.language))
		})
	}
}

func TestValidator_EmptyInputSkipsNetwork(t *testing.T) {
	server, count := setupLanguageServer(t, http.StatusOK, `[{"name":"Python"}]`)
	v := NewValidator(NewHTTPLister(server.URL, server.Client()), 0, nil, testutil.DiscardLogger())

	assert.False(t, v.IsValidLanguage(context.Background(), ""))
	assert.False(t, v.IsValidLanguage(context.Background(), "   "))
	assert.Equal(t, int32(0), atomic.LoadInt32(count), "empty input must not hit the network")
}

func TestValidator_UpstreamFailure(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server, _ := setupLanguageServer(t, http.StatusInternalServerError, `oops`)
		v := NewValidator(NewHTTPLister(server.URL, server.Client()), time.Minute, nil, testutil.DiscardLogger())
		assert.False(t, v.IsValidLanguage(context.Background(), "Python"))
	})

	t.Run("malformed body", func(t *testing.T) {
		server, _ := setupLanguageServer(t, http.StatusOK, `{"name":`)
		v := NewValidator(NewHTTPLister(server.URL, server.Client()), time.Minute, nil, testutil.DiscardLogger())
		assert.False(t, v.IsValidLanguage(context.Background(), "Python"))
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		logger, logs := testutil.BufferLogger()
		v := NewValidator(NewHTTPLister(url, nil), time.Minute, nil, logger)
		assert.False(t, v.IsValidLanguage(context.Background(), "Python"))
		assert.Contains(t, logs.String(), "Failed to fetch known languages")
	})
}

func TestValidator_Cache(t *testing.T) {
	t.Run("reuses the known set within the ttl", func(t *testing.T) {
		server, count := setupLanguageServer(t, http.StatusOK, `[{"name":"Python"}]`)
		clk := testutil.FixedClock()
		v := NewValidator(NewHTTPLister(server.URL, server.Client()), 10*time.Minute, clk, testutil.DiscardLogger())

		require.True(t, v.IsValidLanguage(context.Background(), "python"))
		require.False(t, v.IsValidLanguage(context.Background(), "ruby"))
		assert.Equal(t, int32(1), atomic.LoadInt32(count))

		clk.Advance(11 * time.Minute)
		require.True(t, v.IsValidLanguage(context.Background(), "Python"))
		assert.Equal(t, int32(2), atomic.LoadInt32(count))
	})

	t.Run("zero ttl fetches on every call", func(t *testing.T) {
		server, count := setupLanguageServer(t, http.StatusOK, `[{"name":"Python"}]`)
		v := NewValidator(NewHTTPLister(server.URL, server.Client()), 0, nil, testutil.DiscardLogger())

		v.IsValidLanguage(context.Background(), "python")
		v.IsValidLanguage(context.Background(), "python")
		assert.Equal(t, int32(2), atomic.LoadInt32(count))
	})

	t.Run("failed refresh is not cached", func(t *testing.T) {
		var requestCount int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requestCount, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `[{"name":"Python"}]`)
		}))
		defer server.Close()

		v := NewValidator(NewHTTPLister(server.URL, server.Client()), time.Hour, testutil.FixedClock(), testutil.DiscardLogger())
		assert.False(t, v.IsValidLanguage(context.Background(), "python"))
		assert.True(t, v.IsValidLanguage(context.Background(), "python"))
	})
}
