package leaderboard

import (
	"context"
	"sort"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

// Rank reduces submissions to one entry per handle holding its best score
// over every stage. Entries are ordered by best score descending, ties by
// handle ascending, and numbered from 1.
func Rank(submissions []model.Submission) []model.LeaderboardEntry {
	best := make(map[string]int)
	for _, sub := range submissions {
		if current, ok := best[sub.Handle]; !ok || sub.Score > current {
			best[sub.Handle] = sub.Score
		}
	}

	entries := make([]model.LeaderboardEntry, 0, len(best))
	for handle, score := range best {
		entries = append(entries, model.LeaderboardEntry{Handle: handle, BestScore: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		return entries[i].Handle < entries[j].Handle
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Top returns at most n leading entries
func Top(entries []model.LeaderboardEntry, n int) []model.LeaderboardEntry {
	if n < len(entries) {
		return entries[:n]
	}
	return entries
}

// ServiceInterface is what scoring and reward depend on
type ServiceInterface interface {
	Rank(ctx context.Context, gameID model.SessionID) ([]model.LeaderboardEntry, error)
}

var _ ServiceInterface = (*Service)(nil)

// Service ranks the participants of a session
type Service struct {
	storage storage.Storage
}

// New creates a leaderboard Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// Rank returns the current standings of a session
func (s *Service) Rank(ctx context.Context, gameID model.SessionID) ([]model.LeaderboardEntry, error) {
	if _, err := s.storage.GetSession(ctx, gameID); err != nil {
		return nil, storage.WrapError(err)
	}
	submissions, err := s.storage.ListSubmissions(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	return Rank(submissions), nil
}
