package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

// joinScript performs the membership check, capacity check and insert as a
// single atomic evaluation. The participant hash expires with the session.
//
// KEYS: session, participants. ARGV: handle, participant JSON, limit.
var joinScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then return -2 end
if redis.call('HLEN', KEYS[2]) >= tonumber(ARGV[3]) then return -3 end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then redis.call('PEXPIRE', KEYS[2], ttl) end
return 1
`)

// submitScript appends a submission and records the (handle, stage) marker.
// Both keys expire with the session.
//
// KEYS: submissions, submitted index, session. ARGV: marker field,
// submission JSON, exclusive flag.
var submitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[3]) == 0 then return -2 end
if ARGV[3] == '1' and redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then return -1 end
redis.call('HSET', KEYS[2], ARGV[1], '1')
redis.call('RPUSH', KEYS[1], ARGV[2])
local ttl = redis.call('PTTL', KEYS[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) GetIdentity(ctx context.Context, handle string) (*model.Identity, error) {
	var identity model.Identity
	if err := s.getJSON(ctx, identityKey(handle), &identity); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

func (s *Storage) UpsertIdentity(ctx context.Context, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	// Identities are never deleted
	return s.client.Set(ctx, identityKey(identity.Handle), data, 0).Err()
}

// OAuth state operations

func (s *Storage) SaveOAuthState(ctx context.Context, state *model.OAuthState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, oauthStateKey(state.State), data, s.cfg.OAuthStateTTL).Err()
}

func (s *Storage) TakeOAuthState(ctx context.Context, state string) (*model.OAuthState, error) {
	data, err := s.client.GetDel(ctx, oauthStateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrOAuthStateInvalid
		}
		return nil, err
	}

	var st model.OAuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.GameSession, questions []model.Question) error {
	sessionData, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	questionData, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	ttl := s.retention(session)

	// MULTI/EXEC so a session is never visible without its questions
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, questionsKey(session.ID), questionData, ttl)
		pipe.Set(ctx, sessionKey(session.ID), sessionData, ttl)
		return nil
	})
	return err
}

// retention keeps a session's keys for SessionTTL past its end, however long
// the session runs. Zero means no expiry.
func (s *Storage) retention(session *model.GameSession) time.Duration {
	if s.cfg.SessionTTL <= 0 {
		return 0
	}
	return session.EndTime.Sub(session.CreatedAt) + s.cfg.SessionTTL
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	var session model.GameSession
	if err := s.getJSON(ctx, sessionKey(id), &session); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Storage) GetQuestions(ctx context.Context, id model.SessionID) ([]model.Question, error) {
	var questions []model.Question
	if err := s.getJSON(ctx, questionsKey(id), &questions); err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Question{}, nil
		}
		return nil, err
	}
	return questions, nil
}

// Participant operations

func (s *Storage) AddParticipant(ctx context.Context, participant *model.Participant, limit int) error {
	data, err := json.Marshal(participant)
	if err != nil {
		return err
	}

	keys := []string{sessionKey(participant.GameID), participantsKey(participant.GameID)}
	result, err := joinScript.Run(ctx, s.client, keys, participant.Handle, data, limit).Int()
	if err != nil {
		return err
	}

	switch result {
	case 1:
		return nil
	case -1:
		return model.ErrSessionNotFound
	case -2:
		return model.ErrAlreadyJoined
	case -3:
		return model.ErrCapacityExceeded
	default:
		return fmt.Errorf("unexpected join script result %d", result)
	}
}

func (s *Storage) IsParticipant(ctx context.Context, id model.SessionID, handle string) (bool, error) {
	return s.client.HExists(ctx, participantsKey(id), handle).Result()
}

func (s *Storage) ListParticipants(ctx context.Context, id model.SessionID) ([]model.Participant, error) {
	values, err := s.client.HVals(ctx, participantsKey(id)).Result()
	if err != nil {
		return nil, err
	}

	participants := make([]model.Participant, 0, len(values))
	for _, v := range values {
		var p model.Participant
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	storage.SortParticipants(participants)
	return participants, nil
}

// Submission operations

// AddSubmission reads the session's end time before the script runs. It
// never changes after creation, so only the stamp needs to be late.
func (s *Storage) AddSubmission(ctx context.Context, submission *model.Submission, write storage.SubmissionWrite) error {
	session, err := s.GetSession(ctx, submission.GameID)
	if err != nil {
		return err
	}
	if err := write.Stamp(submission, session); err != nil {
		return err
	}

	data, err := json.Marshal(submission)
	if err != nil {
		return err
	}

	flag := "0"
	if write.Exclusive {
		flag = "1"
	}

	keys := []string{
		submissionsKey(submission.GameID),
		submittedIndexKey(submission.GameID),
		sessionKey(submission.GameID),
	}
	result, err := submitScript.Run(ctx, s.client, keys,
		submittedField(submission.Handle, submission.Stage), data, flag,
	).Int()
	if err != nil {
		return err
	}

	switch result {
	case 1:
		return nil
	case -1:
		return model.ErrAlreadySubmitted
	case -2:
		return model.ErrSessionNotFound
	default:
		return fmt.Errorf("unexpected submit script result %d", result)
	}
}

func (s *Storage) ListSubmissions(ctx context.Context, id model.SessionID) ([]model.Submission, error) {
	values, err := s.client.LRange(ctx, submissionsKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	submissions := make([]model.Submission, 0, len(values))
	for _, v := range values {
		var sub model.Submission
		if err := json.Unmarshal([]byte(v), &sub); err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, nil
}

// Reward claim operations

func (s *Storage) ClaimReward(ctx context.Context, claim *model.RewardClaim) error {
	data, err := json.Marshal(claim)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, rewardClaimKey(claim.GameID, claim.Handle), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrRewardAlreadyClaimed
	}
	return nil
}

func (s *Storage) CompleteRewardClaim(ctx context.Context, id model.SessionID, handle string, txRef string) error {
	key := rewardClaimKey(id, handle)

	// Optimistic transaction: retry is left to the caller on redis.TxFailedErr
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRewardClaimNotFound
			}
			return err
		}

		var claim model.RewardClaim
		if err := json.Unmarshal(data, &claim); err != nil {
			return err
		}
		claim.TxRef = txRef

		updated, err := json.Marshal(claim)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)
}

func (s *Storage) ReleaseRewardClaim(ctx context.Context, id model.SessionID, handle string) error {
	return s.client.Del(ctx, rewardClaimKey(id, handle)).Err()
}

func (s *Storage) GetRewardClaim(ctx context.Context, id model.SessionID, handle string) (*model.RewardClaim, error) {
	var claim model.RewardClaim
	if err := s.getJSON(ctx, rewardClaimKey(id, handle), &claim); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRewardClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (s *Storage) getJSON(ctx context.Context, key string, target any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
