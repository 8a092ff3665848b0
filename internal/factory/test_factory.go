package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/triviastake/internal/dependencies/mocks"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockOAuth     *mocks.OAuthProvider
	MockFetcher   *mocks.TimelineFetcher
	MockGenerator *mocks.Generator
	MockPinner    *mocks.Pinner
	MockMinter    *mocks.Minter
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	t := &TestApp{
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockOAuth:     &mocks.OAuthProvider{Now: mockClock.Now},
		MockFetcher:   &mocks.TimelineFetcher{Tweets: []model.Tweet{{Text: "shipping a new build today"}}},
		MockGenerator: &mocks.Generator{Count: model.DefaultStageCount * model.DefaultQuestionsPerStage},
		MockPinner:    &mocks.Pinner{},
		MockMinter:    &mocks.Minter{},
	}

	t.App = newWithDependencies(store, mockClock, mockRandom, Config{
		Providers: Providers{
			OAuth:     t.MockOAuth,
			Fetcher:   t.MockFetcher,
			Generator: t.MockGenerator,
			Pinner:    t.MockPinner,
			Minter:    t.MockMinter,
		},
	}, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	return t
}

// AddIdentity stores a logged-in identity with a token valid for an hour.
// An empty wallet leaves the identity unlinked.
func (t *TestApp) AddIdentity(ctx context.Context, handle, wallet string) error {
	now := t.MockClock.Now()
	return t.Storage.UpsertIdentity(ctx, &model.Identity{
		Handle:         handle,
		WalletAddress:  wallet,
		AccessToken:    "access-" + handle,
		RefreshToken:   "refresh-" + handle,
		TokenExpiresAt: now.Add(time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}
