package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviastake/internal/services/source"
	"github.com/mcoot/triviastake/internal/testutil"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFetchTimeline(t *testing.T) {
	var timelineQuery string
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/2/users/by/username/alice":
			w.Write([]byte(`{"data":{"id":"42","username":"alice"}}`))
		case "/2/users/42/tweets":
			timelineQuery = r.URL.RawQuery
			w.Write([]byte(`{"data":[
				{"id":"1","text":"shipped a thing","created_at":"2024-03-01T10:00:00.000Z"},
				{"id":"2","text":"   "},
				{"id":"3","text":"coffee time"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	fetcher := New(Config{APIBase: server.URL, MaxResults: 50}, server.Client(), testutil.NopLogger())
	tweets, err := fetcher.FetchTimeline(context.Background(), "alice", "token-1")
	require.NoError(t, err)

	require.Len(t, tweets, 2)
	assert.Equal(t, "shipped a thing", tweets[0].Text)
	assert.True(t, tweets[0].CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "coffee time", tweets[1].Text)
	assert.True(t, tweets[1].CreatedAt.IsZero())
	assert.Contains(t, timelineQuery, "max_results=50")
}

func TestFetchTimelineEmpty(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2/users/by/username/alice" {
			w.Write([]byte(`{"data":{"id":"42"}}`))
			return
		}
		w.Write([]byte(`{"meta":{"result_count":0}}`))
	})

	fetcher := New(Config{APIBase: server.URL}, server.Client(), testutil.NopLogger())
	tweets, err := fetcher.FetchTimeline(context.Background(), "alice", "token-1")
	require.NoError(t, err)
	assert.Empty(t, tweets)
}

func TestFetchTimelineRateLimited(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	fetcher := New(Config{APIBase: server.URL}, server.Client(), testutil.NopLogger())
	_, err := fetcher.FetchTimeline(context.Background(), "alice", "token-1")
	assert.ErrorIs(t, err, source.ErrRateLimited)
}

func TestFetchTimelineUnknownUser(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"title":"Not Found Error"}]}`))
	})

	fetcher := New(Config{APIBase: server.URL}, server.Client(), testutil.NopLogger())
	_, err := fetcher.FetchTimeline(context.Background(), "ghost", "token-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFetchTimelineServerError(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"title":"Unauthorized"}`))
	})

	fetcher := New(Config{APIBase: server.URL}, server.Client(), testutil.NopLogger())
	_, err := fetcher.FetchTimeline(context.Background(), "alice", "token-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
	assert.NotErrorIs(t, err, source.ErrRateLimited)
}

func TestMaxResultsIsClamped(t *testing.T) {
	assert.Equal(t, minResults, New(Config{MaxResults: 1}, nil, testutil.NopLogger()).maxResults)
	assert.Equal(t, maxResults, New(Config{MaxResults: 500}, nil, testutil.NopLogger()).maxResults)
}
