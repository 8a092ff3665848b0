// Package twitter fetches a user's recent posts from the platform's v2 API.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/source"
)

// ErrUserNotFound is returned when the handle does not resolve to a user
var ErrUserNotFound = errors.New("user not found")

const (
	minResults = 5
	maxResults = 100
)

// Config holds API settings
type Config struct {
	APIBase    string
	MaxResults int
}

// Ensure Fetcher implements source.Fetcher
var _ source.Fetcher = (*Fetcher)(nil)

// Fetcher reads timelines with the caller's user access token
type Fetcher struct {
	apiBase    string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Fetcher. A nil httpClient means http.DefaultClient.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limit := cfg.MaxResults
	if limit < minResults {
		limit = minResults
	}
	if limit > maxResults {
		limit = maxResults
	}
	return &Fetcher{
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		maxResults: limit,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchTimeline resolves handle to a user id then reads its recent posts.
// A 429 from either call is reported as source.ErrRateLimited.
func (f *Fetcher) FetchTimeline(ctx context.Context, handle, accessToken string) ([]model.Tweet, error) {
	user, err := f.get(ctx, "/2/users/by/username/"+url.PathEscape(handle), nil, accessToken)
	if err != nil {
		return nil, err
	}
	id := gjson.GetBytes(user, "data.id").String()
	if id == "" {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, handle)
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(f.maxResults))
	query.Set("tweet.fields", "created_at")
	body, err := f.get(ctx, "/2/users/"+url.PathEscape(id)+"/tweets", query, accessToken)
	if err != nil {
		return nil, err
	}

	var tweets []model.Tweet
	gjson.GetBytes(body, "data").ForEach(func(_, value gjson.Result) bool {
		text := value.Get("text").String()
		if strings.TrimSpace(text) == "" {
			return true
		}
		tweet := model.Tweet{Text: text}
		if created := value.Get("created_at").String(); created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				tweet.CreatedAt = t
			}
		}
		tweets = append(tweets, tweet)
		return true
	})

	f.logger.Debug("fetched timeline",
		slog.String("handle", handle),
		slog.Int("tweets", len(tweets)))
	return tweets, nil
}

func (f *Fetcher) get(ctx context.Context, path string, query url.Values, accessToken string) ([]byte, error) {
	target := f.apiBase + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, source.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, gjson.GetBytes(body, "title").String())
	}
	return body, nil
}
