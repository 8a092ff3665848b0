package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/triviastake/internal/dependencies/random"
	"github.com/mcoot/triviastake/internal/model"
)

// ErrRateLimited is returned by a Fetcher when the upstream API throttles
var ErrRateLimited = errors.New("source rate limited")

// Fetcher retrieves a live timeline for a handle
type Fetcher interface {
	FetchTimeline(ctx context.Context, handle, accessToken string) ([]model.Tweet, error)
}

// Bundle is a fixed tweet set used when the live timeline is unavailable
type Bundle struct {
	Handle string        `json:"handle"`
	Tweets []model.Tweet `json:"tweets"`
}

// ServiceInterface is what ingestion depends on
type ServiceInterface interface {
	Fetch(ctx context.Context, handle, accessToken string) (*model.SourceText, error)
}

var _ ServiceInterface = (*Service)(nil)

// Service provides source text for question generation, preferring the
// live timeline and falling back to a randomly chosen bundle
type Service struct {
	fetcher Fetcher
	random  random.Random
	logger  *slog.Logger

	mu      sync.RWMutex
	bundles []Bundle
}

// New creates a source Service. fetcher may be nil, in which case every
// request is served from the fallback bundles.
func New(fetcher Fetcher, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		random:  random,
		logger:  logger,
	}
}

// LoadFromDir loads every *.json bundle in dir, in file name order
func (s *Service) LoadFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	bundles := make([]Bundle, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		var bundle Bundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			return fmt.Errorf("parse bundle %s: %w", name, err)
		}
		if len(bundle.Tweets) == 0 {
			s.logger.Warn("skipping empty fallback bundle", slog.String("file", name))
			continue
		}
		if bundle.Handle == "" {
			bundle.Handle = strings.TrimSuffix(name, filepath.Ext(name))
		}
		bundles = append(bundles, bundle)
	}

	s.LoadBundles(bundles)
	s.logger.Info("fallback bundles loaded", slog.Int("count", len(bundles)))
	return nil
}

// LoadBundles replaces the fallback set (useful for testing)
func (s *Service) LoadBundles(bundles []Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles = bundles
}

// BundleCount returns the number of loaded fallback bundles
func (s *Service) BundleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles)
}

// Fetch returns source text for handle. Any live failure, a rate limit or an
// empty timeline falls back to a bundle; with no bundles loaded the call
// fails with ErrSourceUnavailable.
func (s *Service) Fetch(ctx context.Context, handle, accessToken string) (*model.SourceText, error) {
	var cause error
	if s.fetcher == nil {
		cause = errors.New("no live source configured")
	} else {
		tweets, err := s.fetcher.FetchTimeline(ctx, handle, accessToken)
		switch {
		case err == nil && len(tweets) > 0:
			return &model.SourceText{Handle: handle, Tweets: tweets}, nil
		case err == nil:
			cause = errors.New("empty timeline")
		default:
			cause = err
		}
	}

	logger := s.logger.With(slog.String("handle", handle), slog.String("reason", cause.Error()))
	if errors.Is(cause, ErrRateLimited) {
		logger.Warn("live source rate limited, using fallback")
	} else {
		logger.Info("live source unavailable, using fallback")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.bundles) == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, cause)
	}
	bundle := s.bundles[s.random.Intn(len(s.bundles))]
	return &model.SourceText{
		Handle:   bundle.Handle,
		Tweets:   bundle.Tweets,
		Fallback: true,
	}, nil
}
