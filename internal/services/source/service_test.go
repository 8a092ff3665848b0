package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviastake/internal/dependencies/mocks"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	fetcher *mocks.TimelineFetcher
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.fetcher = &mocks.TimelineFetcher{}
	s.random = mocks.NewMockRandom()
	s.service = New(s.fetcher, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func tweets(texts ...string) []model.Tweet {
	out := make([]model.Tweet, len(texts))
	for i, t := range texts {
		out[i] = model.Tweet{Text: t, CreatedAt: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)}
	}
	return out
}

func (s *ServiceSuite) loadTwoBundles() {
	s.service.LoadBundles([]Bundle{
		{Handle: "first", Tweets: tweets("one")},
		{Handle: "second", Tweets: tweets("two")},
	})
}

func (s *ServiceSuite) TestFetchUsesLiveTimeline() {
	s.fetcher.Tweets = tweets("hello", "world")
	s.loadTwoBundles()

	text, err := s.service.Fetch(s.ctx, "alice", "token")
	s.Require().NoError(err)
	s.False(text.Fallback)
	s.Equal("alice", text.Handle)
	s.Len(text.Tweets, 2)
	s.Equal([]string{"alice"}, s.fetcher.Calls())
}

func (s *ServiceSuite) TestFetchFallsBackOnRateLimit() {
	s.fetcher.Err = ErrRateLimited
	s.loadTwoBundles()
	s.random.QueueIntn(1)

	text, err := s.service.Fetch(s.ctx, "alice", "token")
	s.Require().NoError(err)
	s.True(text.Fallback)
	s.Equal("second", text.Handle)
}

func (s *ServiceSuite) TestFetchFallsBackOnError() {
	s.fetcher.Err = errors.New("connection reset")
	s.loadTwoBundles()

	text, err := s.service.Fetch(s.ctx, "alice", "token")
	s.Require().NoError(err)
	s.True(text.Fallback)
	s.Equal("first", text.Handle)
}

func (s *ServiceSuite) TestFetchFallsBackOnEmptyTimeline() {
	s.loadTwoBundles()

	text, err := s.service.Fetch(s.ctx, "alice", "token")
	s.Require().NoError(err)
	s.True(text.Fallback)
}

func (s *ServiceSuite) TestFetchWithoutBundlesFails() {
	s.fetcher.Err = ErrRateLimited

	_, err := s.service.Fetch(s.ctx, "alice", "token")
	s.ErrorIs(err, model.ErrSourceUnavailable)
	s.ErrorIs(err, ErrRateLimited)
}

func (s *ServiceSuite) TestFetchWithoutLiveSource() {
	service := New(nil, s.random, testutil.NopLogger())
	service.LoadBundles([]Bundle{{Handle: "only", Tweets: tweets("x")}})

	text, err := service.Fetch(s.ctx, "alice", "")
	s.Require().NoError(err)
	s.Equal("only", text.Handle)
	s.True(text.Fallback)
}

func (s *ServiceSuite) TestLoadFromDir() {
	dir := s.T().TempDir()
	write := func(name, content string) {
		s.Require().NoError(os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("b.json", `{"handle":"bee","tweets":[{"text":"buzz","created_at":"2024-01-01T00:00:00Z"}]}`)
	write("a.json", `{"tweets":[{"text":"ay","created_at":"2024-01-01T00:00:00Z"}]}`)
	write("empty.json", `{"handle":"empty","tweets":[]}`)
	write("notes.txt", `ignored`)

	s.Require().NoError(s.service.LoadFromDir(dir))
	s.Equal(2, s.service.BundleCount())

	s.random.QueueIntn(0, 1)
	first, err := s.service.Fetch(s.ctx, "alice", "")
	s.Require().NoError(err)
	s.Equal("a", first.Handle)
	second, err := s.service.Fetch(s.ctx, "alice", "")
	s.Require().NoError(err)
	s.Equal("bee", second.Handle)
}

func (s *ServiceSuite) TestLoadFromDirMalformed() {
	dir := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600))

	err := s.service.LoadFromDir(dir)
	s.Error(err)
	s.Equal(0, s.service.BundleCount())
}

func (s *ServiceSuite) TestLoadFromDirMissing() {
	err := s.service.LoadFromDir(filepath.Join(s.T().TempDir(), "missing"))
	s.Error(err)
}
