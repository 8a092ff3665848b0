package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/dependencies/random"
	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/services/leaderboard"
	"github.com/mcoot/triviastake/internal/storage"
)

// Policy controls how repeat submissions for a stage are treated
type Policy string

const (
	// PolicyBestAttempt keeps every attempt; the leaderboard takes the best
	PolicyBestAttempt Policy = "best_attempt"
	// PolicySingle rejects a second submission for the same stage
	PolicySingle Policy = "single"
)

// ScoreStage counts positions where the submitted fingerprint equals the
// correct one. Missing positions score nothing and answers beyond the
// question count are ignored.
func ScoreStage(correct, submitted []string) int {
	score := 0
	for i, fp := range submitted {
		if i >= len(correct) {
			break
		}
		if fp == correct[i] {
			score++
		}
	}
	return score
}

// Config holds submission settings
type Config struct {
	Stages int
	Policy Policy
}

// DefaultConfig returns three stages with unlimited attempts
func DefaultConfig() Config {
	return Config{Stages: model.DefaultStageCount, Policy: PolicyBestAttempt}
}

// ServiceInterface is what the API layer depends on
type ServiceInterface interface {
	Submit(ctx context.Context, gameID model.SessionID, handle string, stage int, fingerprints []string) (*model.Submission, error)
}

var _ ServiceInterface = (*Service)(nil)

// Service scores stage submissions against stored answer fingerprints
type Service struct {
	storage     storage.Storage
	auth        auth.ServiceInterface
	leaderboard leaderboard.ServiceInterface
	clock       clock.Clock
	random      random.Random
	events      model.Publisher
	cfg         Config
	logger      *slog.Logger
}

// New creates a scoring Service
func New(
	storage storage.Storage,
	auth auth.ServiceInterface,
	leaderboard leaderboard.ServiceInterface,
	clock clock.Clock,
	random random.Random,
	events model.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.Stages <= 0 {
		cfg.Stages = model.DefaultStageCount
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyBestAttempt
	}
	if events == nil {
		events = model.NopPublisher{}
	}
	return &Service{
		storage:     storage,
		auth:        auth,
		leaderboard: leaderboard,
		clock:       clock,
		random:      random,
		events:      events,
		cfg:         cfg,
		logger:      logger,
	}
}

// Submit scores one stage attempt and records it
func (s *Service) Submit(ctx context.Context, gameID model.SessionID, handle string, stage int, fingerprints []string) (*model.Submission, error) {
	if _, err := s.auth.RequireIdentity(ctx, handle); err != nil {
		return nil, err
	}

	session, err := s.storage.GetSession(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	if session.IsEnded(s.clock.Now()) {
		return nil, model.ErrSessionEnded
	}

	joined, err := s.storage.IsParticipant(ctx, gameID, handle)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	if !joined {
		return nil, model.ErrNotAParticipant
	}

	if stage < 1 || stage > s.cfg.Stages {
		return nil, fmt.Errorf("%w: stage %d is outside 1..%d", model.ErrInvalidStage, stage, s.cfg.Stages)
	}

	questions, err := s.storage.GetQuestions(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	answers := make([]string, len(fingerprints))
	for i, fp := range fingerprints {
		answers[i] = fingerprint.Normalize(fp)
	}
	correct := model.Fingerprints(model.QuestionsForStage(questions, stage))
	score := ScoreStage(correct, answers)

	submission := &model.Submission{
		ID:                 s.random.UUID(),
		GameID:             gameID,
		Handle:             handle,
		Stage:              stage,
		Score:              score,
		AnswerFingerprints: answers,
	}
	// The backend reads the clock under its lock and rejects a late stamp
	write := storage.SubmissionWrite{
		Exclusive: s.cfg.Policy == PolicySingle,
		Now:       s.clock.Now,
	}
	if err := s.storage.AddSubmission(ctx, submission, write); err != nil {
		return nil, storage.WrapError(err)
	}

	s.logger.Info("submission scored",
		slog.String("game_id", string(gameID)),
		slog.String("handle", handle),
		slog.Int("stage", stage),
		slog.Int("score", score),
		slog.Int("questions", len(correct)))

	s.publish(ctx, submission)
	return submission, nil
}

func (s *Service) publish(ctx context.Context, submission *model.Submission) {
	s.events.Publish(model.Event{
		Type:      model.EventSubmissionScored,
		Timestamp: submission.SubmittedAt,
		GameID:    submission.GameID,
		Handle:    submission.Handle,
		Payload:   model.SubmissionScoredPayload{Stage: submission.Stage, Score: submission.Score},
	})

	if s.leaderboard == nil {
		return
	}
	entries, err := s.leaderboard.Rank(ctx, submission.GameID)
	if err != nil {
		s.logger.Warn("could not rank session for event",
			slog.String("game_id", string(submission.GameID)),
			slog.String("error", err.Error()))
		return
	}
	s.events.Publish(model.Event{
		Type:      model.EventLeaderboardUpdated,
		Timestamp: submission.SubmittedAt,
		GameID:    submission.GameID,
		Payload:   model.LeaderboardUpdatedPayload{Entries: entries},
	})
}
