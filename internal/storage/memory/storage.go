package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identities   map[string]*model.Identity
	oauthStates  map[string]*model.OAuthState
	sessions     map[model.SessionID]*model.GameSession
	questions    map[model.SessionID][]model.Question
	participants map[model.SessionID]map[string]model.Participant
	submissions  map[model.SessionID][]model.Submission
	claims       map[claimKey]*model.RewardClaim
}

type claimKey struct {
	gameID model.SessionID
	handle string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		identities:   make(map[string]*model.Identity),
		oauthStates:  make(map[string]*model.OAuthState),
		sessions:     make(map[model.SessionID]*model.GameSession),
		questions:    make(map[model.SessionID][]model.Question),
		participants: make(map[model.SessionID]map[string]model.Participant),
		submissions:  make(map[model.SessionID][]model.Submission),
		claims:       make(map[claimKey]*model.RewardClaim),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) GetIdentity(ctx context.Context, handle string) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[handle]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	cp := *identity
	return &cp, nil
}

func (s *Storage) UpsertIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *identity
	s.identities[identity.Handle] = &cp
	return nil
}

// OAuth state operations

func (s *Storage) SaveOAuthState(ctx context.Context, state *model.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.oauthStates[state.State] = &cp
	return nil
}

func (s *Storage) TakeOAuthState(ctx context.Context, state string) (*model.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.oauthStates[state]
	if !ok {
		return nil, model.ErrOAuthStateInvalid
	}
	delete(s.oauthStates, state)
	return st, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.GameSession, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	s.questions[session.ID] = cloneQuestions(questions)
	s.participants[session.ID] = make(map[string]model.Participant)
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *Storage) GetQuestions(ctx context.Context, id model.SessionID) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := cloneQuestions(s.questions[id])
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Stage != questions[j].Stage {
			return questions[i].Stage < questions[j].Stage
		}
		return questions[i].Index < questions[j].Index
	})
	return questions, nil
}

// Participant operations

func (s *Storage) AddParticipant(ctx context.Context, participant *model.Participant, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[participant.GameID]; !ok {
		return model.ErrSessionNotFound
	}
	members := s.participants[participant.GameID]
	if _, ok := members[participant.Handle]; ok {
		return model.ErrAlreadyJoined
	}
	if len(members) >= limit {
		return model.ErrCapacityExceeded
	}
	members[participant.Handle] = *participant
	return nil
}

func (s *Storage) IsParticipant(ctx context.Context, id model.SessionID, handle string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[id][handle]
	return ok, nil
}

func (s *Storage) ListParticipants(ctx context.Context, id model.SessionID) ([]model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.Participant, 0, len(s.participants[id]))
	for _, p := range s.participants[id] {
		result = append(result, p)
	}
	storage.SortParticipants(result)
	return result, nil
}

// Submission operations

func (s *Storage) AddSubmission(ctx context.Context, submission *model.Submission, write storage.SubmissionWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[submission.GameID]
	if !ok {
		return model.ErrSessionNotFound
	}
	if err := write.Stamp(submission, session); err != nil {
		return err
	}
	if write.Exclusive {
		for _, existing := range s.submissions[submission.GameID] {
			if existing.Handle == submission.Handle && existing.Stage == submission.Stage {
				return model.ErrAlreadySubmitted
			}
		}
	}
	cp := *submission
	cp.AnswerFingerprints = slices.Clone(submission.AnswerFingerprints)
	s.submissions[submission.GameID] = append(s.submissions[submission.GameID], cp)
	return nil
}

func (s *Storage) ListSubmissions(ctx context.Context, id model.SessionID) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.submissions[id]), nil
}

// Reward claim operations

func (s *Storage) ClaimReward(ctx context.Context, claim *model.RewardClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claimKey{claim.GameID, claim.Handle}
	if _, ok := s.claims[key]; ok {
		return model.ErrRewardAlreadyClaimed
	}
	cp := *claim
	s.claims[key] = &cp
	return nil
}

func (s *Storage) CompleteRewardClaim(ctx context.Context, id model.SessionID, handle string, txRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimKey{id, handle}]
	if !ok {
		return model.ErrRewardClaimNotFound
	}
	claim.TxRef = txRef
	return nil
}

func (s *Storage) ReleaseRewardClaim(ctx context.Context, id model.SessionID, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, claimKey{id, handle})
	return nil
}

func (s *Storage) GetRewardClaim(ctx context.Context, id model.SessionID, handle string) (*model.RewardClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[claimKey{id, handle}]
	if !ok {
		return nil, model.ErrRewardClaimNotFound
	}
	cp := *claim
	return &cp, nil
}

func cloneQuestions(questions []model.Question) []model.Question {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}
