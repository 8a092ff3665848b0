package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/dependencies/random"
	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/services/source"
	"github.com/mcoot/triviastake/internal/storage"
)

// Generator turns source text into trivia questions
type Generator interface {
	Generate(ctx context.Context, source model.SourceText) ([]model.GeneratedQuestion, error)
}

// Pinner publishes a JSON document to content-addressed storage
type Pinner interface {
	PinJSON(ctx context.Context, name string, payload any) (string, error)
}

// Config holds question layout settings
type Config struct {
	Stages            int
	QuestionsPerStage int
}

// DefaultConfig returns three stages of five questions
func DefaultConfig() Config {
	return Config{
		Stages:            model.DefaultStageCount,
		QuestionsPerStage: model.DefaultQuestionsPerStage,
	}
}

// CreateRequest holds the inputs for a new session
type CreateRequest struct {
	CreatorBasename  string
	StakeAmount      int64
	PlayerLimit      int
	DurationSeconds  int64
	RequestingHandle string
}

// CreateResult is a persisted session plus the outcome of the best-effort
// pin step. ContentAddress is nil when pinning failed or was skipped.
type CreateResult struct {
	Session        *model.GameSession
	Questions      []model.Question
	ContentAddress *string
	PinWarning     string
}

// Service creates game sessions from generated questions
type Service struct {
	storage   storage.Storage
	auth      auth.ServiceInterface
	source    source.ServiceInterface
	generator Generator
	pinner    Pinner
	hasher    *fingerprint.Hasher
	clock     clock.Clock
	random    random.Random
	cfg       Config
	logger    *slog.Logger
}

// New creates an ingestion Service. pinner may be nil to skip pinning.
func New(
	storage storage.Storage,
	auth auth.ServiceInterface,
	source source.ServiceInterface,
	generator Generator,
	pinner Pinner,
	hasher *fingerprint.Hasher,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.Stages <= 0 || cfg.QuestionsPerStage <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		storage:   storage,
		auth:      auth,
		source:    source,
		generator: generator,
		pinner:    pinner,
		hasher:    hasher,
		clock:     clock,
		random:    random,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateSession runs token validation, source fetch, generation and
// persistence in order. Nothing is persisted unless every step succeeds.
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	accessToken, err := s.auth.EnsureValidToken(ctx, req.RequestingHandle)
	if err != nil {
		return nil, err
	}

	text, err := s.source.Fetch(ctx, req.RequestingHandle, accessToken)
	if err != nil {
		if errors.Is(err, model.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}

	generated, err := s.generator.Generate(ctx, *text)
	if err != nil {
		s.logger.Warn("question generation failed",
			slog.String("handle", req.RequestingHandle),
			slog.String("error", err.Error()))
		if errors.Is(err, model.ErrGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}

	id := model.SessionID(s.random.UUID())
	questions, err := s.buildQuestions(id, generated)
	if err != nil {
		return nil, err
	}

	// The deadline is measured from the moment of commit
	session := model.NewGameSession(id, req.CreatorBasename, req.StakeAmount, req.PlayerLimit, req.DurationSeconds, s.clock.Now())
	session.SourceHandle = text.Handle

	if err := s.storage.CreateSession(ctx, session, questions); err != nil {
		return nil, storage.WrapError(err)
	}

	s.logger.Info("session created",
		slog.String("game_id", string(id)),
		slog.String("creator", req.CreatorBasename),
		slog.String("source_handle", text.Handle),
		slog.Bool("fallback_source", text.Fallback),
		slog.Int("questions", len(questions)))

	result := &CreateResult{Session: session, Questions: questions}
	s.pin(ctx, result)
	return result, nil
}

// pin is best effort; a failure is reported on the result, never returned
func (s *Service) pin(ctx context.Context, result *CreateResult) {
	if s.pinner == nil {
		result.PinWarning = "pinning is not configured"
		return
	}

	address, err := s.pinner.PinJSON(ctx, "trivia-"+string(result.Session.ID), NewPinnedQuestionSet(result.Session.ID, result.Questions))
	if err != nil {
		s.logger.Warn("pinning questions failed",
			slog.String("game_id", string(result.Session.ID)),
			slog.String("error", err.Error()))
		result.PinWarning = "questions were not pinned: " + err.Error()
		return
	}
	result.ContentAddress = &address
}

// buildQuestions validates generator output, drops repeats, trims it to the
// configured size and lays it out across stages in order
func (s *Service) buildQuestions(id model.SessionID, generated []model.GeneratedQuestion) ([]model.Question, error) {
	type accepted struct {
		question    model.GeneratedQuestion
		fingerprint string
	}

	limit := s.cfg.Stages * s.cfg.QuestionsPerStage
	seen := make(map[string]struct{}, len(generated))
	unique := make([]accepted, 0, min(len(generated), limit))

	for i, g := range generated {
		if len(unique) == limit {
			break
		}
		fp, err := s.validate(g)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %w", model.ErrGenerationFailed, i, err)
		}
		if _, dup := seen[fp]; dup {
			s.logger.Warn("dropping repeated question",
				slog.String("game_id", string(id)),
				slog.Int("position", i),
				slog.String("fingerprint", fp))
			continue
		}
		seen[fp] = struct{}{}
		unique = append(unique, accepted{question: g, fingerprint: fp})
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: generator returned no questions", model.ErrGenerationFailed)
	}

	perStage := (len(unique) + s.cfg.Stages - 1) / s.cfg.Stages
	questions := make([]model.Question, len(unique))
	for i, u := range unique {
		questions[i] = model.Question{
			GameID:        id,
			Stage:         i/perStage + 1,
			Index:         i % perStage,
			Text:          strings.TrimSpace(u.question.Question),
			Options:       append([]string(nil), u.question.Options...),
			CorrectAnswer: u.question.CorrectAnswer,
			Fingerprint:   u.fingerprint,
		}
	}
	return questions, nil
}

// validate checks one generated question and returns its fingerprint
func (s *Service) validate(g model.GeneratedQuestion) (string, error) {
	if strings.TrimSpace(g.Question) == "" {
		return "", errors.New("empty question text")
	}
	if len(g.Options) < 2 {
		return "", fmt.Errorf("%d options, need at least 2", len(g.Options))
	}

	found := false
	for _, opt := range g.Options {
		if strings.TrimSpace(opt) == "" {
			return "", errors.New("empty option")
		}
		if opt == g.CorrectAnswer {
			found = true
		}
	}
	if !found {
		return "", errors.New("correct answer is not among the options")
	}

	fp := s.hasher.Compute(g.Question, g.CorrectAnswer)
	if g.Hash != "" && !strings.EqualFold(g.Hash, fp) {
		return "", errors.New("supplied hash does not match the answer fingerprint")
	}
	return fp, nil
}

func validateRequest(req CreateRequest) error {
	var problems []string
	if strings.TrimSpace(req.CreatorBasename) == "" {
		problems = append(problems, "creatorBasename is required")
	}
	if strings.TrimSpace(req.RequestingHandle) == "" {
		problems = append(problems, "requestingHandle is required")
	}
	if req.PlayerLimit <= 0 {
		problems = append(problems, "playerLimit must be positive")
	}
	if req.DurationSeconds <= 0 {
		problems = append(problems, "durationSeconds must be positive")
	}
	if req.StakeAmount < 0 {
		problems = append(problems, "stakeAmount must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
