package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blogia/internal/apperror"
)

func testConfig(url string) Config {
	return Config{
		URL:     url,
		AnonKey: "test-anon-key-0123456789",
		Timeout: 5 * time.Second,
	}
}

func TestConfigIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"valid https", Config{URL: "https://abc.supabase.co", AnonKey: "test-anon-key-0123456789"}, true},
		{"valid http for local dev", Config{URL: "http://localhost.localdomain", AnonKey: "test-anon-key-0123456789"}, true},
		{"empty url", Config{AnonKey: "test-anon-key-0123456789"}, false},
		{"empty key", Config{URL: "https://abc.supabase.co"}, false},
		{"short key", Config{URL: "https://abc.supabase.co", AnonKey: "short"}, false},
		{"bad scheme", Config{URL: "ftp://abc.supabase.co", AnonKey: "test-anon-key-0123456789"}, false},
		{"no dot in host", Config{URL: "https://localhost", AnonKey: "test-anon-key-0123456789"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsConfigured())
		})
	}
}

func TestNewWithBadConfigStaysUsable(t *testing.T) {
	c := New(Config{})
	require.NotNil(t, c)
	assert.False(t, c.Configured())
	assert.NotNil(t, c.Auth())
	assert.NotNil(t, c.Database())
	assert.NotNil(t, c.Storage())
}

func TestWithTimeout(t *testing.T) {
	t.Run("expired budget yields a labelled timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))
		defer srv.Close()

		c := New(testConfig(srv.URL))
		c.baseURL = srv.URL
		c.restURL = srv.URL

		err := WithTimeout(context.Background(), 100*time.Millisecond, "fetch x", func(ctx context.Context) error {
			_, reqErr := c.request(ctx, http.MethodGet, srv.URL, nil, nil, "")
			return reqErr
		})

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrTimeout))
		assert.Contains(t, err.Error(), "fetch x")
		assert.Contains(t, err.Error(), "100ms")
	})

	t.Run("fast call passes through", func(t *testing.T) {
		err := WithTimeout(context.Background(), time.Second, "noop", func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("fn errors pass through unclassified", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTimeout(context.Background(), time.Second, "noop", func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("parent cancellation is not rebranded as timeout", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		cancel()

		err := WithTimeout(parent, time.Second, "op", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		assert.False(t, errors.Is(err, apperror.ErrTimeout))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRequestSetsAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	c.restURL = srv.URL

	t.Run("anon key rides both headers by default", func(t *testing.T) {
		_, err := c.request(context.Background(), http.MethodGet, srv.URL, nil, nil, "")
		require.NoError(t, err)
		assert.Equal(t, "test-anon-key-0123456789", gotAPIKey)
		assert.Equal(t, "Bearer test-anon-key-0123456789", gotAuth)
	})

	t.Run("user token overrides the bearer only", func(t *testing.T) {
		_, err := c.request(context.Background(), http.MethodGet, srv.URL, nil, nil, "user-jwt")
		require.NoError(t, err)
		assert.Equal(t, "test-anon-key-0123456789", gotAPIKey)
		assert.Equal(t, "Bearer user-jwt", gotAuth)
	})
}

func TestParseError(t *testing.T) {
	t.Run("postgrest envelope", func(t *testing.T) {
		e := parseError([]byte(`{"code":"PGRST116","message":"no rows","details":"d"}`), 406)
		assert.Equal(t, "PGRST116", e.Code)
		assert.Equal(t, "no rows", e.Message)
		assert.Equal(t, 406, e.StatusCode)
	})

	t.Run("auth envelope", func(t *testing.T) {
		e := parseError([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`), 400)
		assert.Equal(t, "invalid_grant", e.Code)
		assert.Equal(t, "Invalid login credentials", e.Message)
	})

	t.Run("msg-only envelope", func(t *testing.T) {
		e := parseError([]byte(`{"msg":"something"}`), 422)
		assert.Equal(t, "something", e.Message)
	})

	t.Run("unparseable body", func(t *testing.T) {
		e := parseError([]byte("<html>bad gateway</html>"), 502)
		assert.Equal(t, "unknown", e.Code)
		assert.Contains(t, e.Message, "bad gateway")
	})
}

func TestQueryBuilderURL(t *testing.T) {
	c := New(testConfig("https://abc.supabase.co"))

	q := c.Database().From("posts").
		Select("*, profiles(*)").
		Eq("published", true).
		Order("created_at", true).
		Limit(20).
		Offset(40)

	u := q.buildURL()
	assert.Contains(t, u, "/rest/v1/posts?")
	assert.Contains(t, u, "select=%2A%2C+profiles%28%2A%29")
	assert.Contains(t, u, "published=eq.true")
	assert.Contains(t, u, "order=created_at.desc")
	assert.Contains(t, u, "limit=20")
	assert.Contains(t, u, "offset=40")
}

func TestQueryBuilderExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.Header().Set("Content-Range", "0-9/42")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet:
			assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
			w.Write([]byte(`{"id":"p1"}`))
		case r.Method == http.MethodPost:
			assert.Contains(t, r.Header.Get("Prefer"), "return=representation")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[{"id":"p1"}]`))
		}
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	c.restURL = srv.URL

	t.Run("count parses Content-Range", func(t *testing.T) {
		n, err := c.Database().From("likes").Eq("post_id", "p1").ExecuteCount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("single sets the object accept header", func(t *testing.T) {
		var row struct {
			ID string `json:"id"`
		}
		err := c.Database().From("posts").Select("*").Eq("id", "p1").Single().ExecuteInto(context.Background(), &row)
		require.NoError(t, err)
		assert.Equal(t, "p1", row.ID)
	})

	t.Run("insert returns representation", func(t *testing.T) {
		var rows []struct {
			ID string `json:"id"`
		}
		err := c.Database().From("posts").Insert(map[string]string{"title": "x"}).ExecuteInto(context.Background(), &rows)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}

func TestQueryBuilderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"42501","message":"permission denied"}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	c.restURL = srv.URL

	_, err := c.Database().From("posts").Delete().Eq("id", "p1").Execute(context.Background())
	require.Error(t, err)

	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "42501", se.Code)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestParseContentRangeTotal(t *testing.T) {
	n, err := parseContentRangeTotal("0-9/42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = parseContentRangeTotal("*/0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = parseContentRangeTotal("0-9/*")
	assert.Error(t, err)

	_, err = parseContentRangeTotal("")
	assert.Error(t, err)
}
