package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
	"github.com/mcoot/triviastake/internal/storage/memory"
)

func sub(handle string, stage, score int) model.Submission {
	return model.Submission{Handle: handle, Stage: stage, Score: score}
}

func TestRank(t *testing.T) {
	tests := []struct {
		name        string
		submissions []model.Submission
		expected    []model.LeaderboardEntry
	}{
		{
			name:        "no submissions",
			submissions: nil,
			expected:    []model.LeaderboardEntry{},
		},
		{
			name: "best score across stages",
			submissions: []model.Submission{
				sub("alice", 1, 2), sub("alice", 2, 5), sub("alice", 3, 1),
				sub("bob", 1, 4),
			},
			expected: []model.LeaderboardEntry{
				{Rank: 1, Handle: "alice", BestScore: 5},
				{Rank: 2, Handle: "bob", BestScore: 4},
			},
		},
		{
			name: "resubmission keeps the best attempt",
			submissions: []model.Submission{
				sub("alice", 1, 4), sub("alice", 1, 1),
			},
			expected: []model.LeaderboardEntry{
				{Rank: 1, Handle: "alice", BestScore: 4},
			},
		},
		{
			name: "ties broken by handle",
			submissions: []model.Submission{
				sub("carol", 1, 3), sub("alice", 1, 3), sub("bob", 1, 3), sub("dave", 1, 0),
			},
			expected: []model.LeaderboardEntry{
				{Rank: 1, Handle: "alice", BestScore: 3},
				{Rank: 2, Handle: "bob", BestScore: 3},
				{Rank: 3, Handle: "carol", BestScore: 3},
				{Rank: 4, Handle: "dave", BestScore: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rank(tt.submissions))
		})
	}
}

func TestRankIsOrderIndependent(t *testing.T) {
	a := []model.Submission{sub("bob", 1, 2), sub("alice", 1, 2), sub("carol", 2, 5)}
	b := []model.Submission{sub("carol", 2, 5), sub("alice", 1, 2), sub("bob", 1, 2)}
	assert.Equal(t, Rank(a), Rank(b))
}

func TestTop(t *testing.T) {
	entries := Rank([]model.Submission{sub("a", 1, 4), sub("b", 1, 3), sub("c", 1, 2), sub("d", 1, 1)})

	assert.Len(t, Top(entries, 3), 3)
	assert.Equal(t, "c", Top(entries, 3)[2].Handle)
	assert.Len(t, Top(entries, 10), 4)
	assert.Empty(t, Top(nil, 3))
}

func TestServiceRank(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := New(store)

	_, err := service.Rank(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	session := model.NewGameSession("game-1", "creator", 0, 5, 60, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.CreateSession(ctx, session, nil))

	entries, err := service.Rank(ctx, "game-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.AddSubmission(ctx, &model.Submission{ID: "s1", GameID: "game-1", Handle: "bob", Stage: 1, Score: 3}, storage.SubmissionWrite{}))
	require.NoError(t, store.AddSubmission(ctx, &model.Submission{ID: "s2", GameID: "game-1", Handle: "alice", Stage: 2, Score: 4}, storage.SubmissionWrite{}))

	entries, err = service.Rank(ctx, "game-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Handle)
	assert.Equal(t, 4, entries[0].BestScore)
}
