// Package storagetest holds the behaviour every storage backend must share.
// Backend test suites embed Suite and assign Store in their SetupTest.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

// Suite is a backend-agnostic storage test suite
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) createSession(id model.SessionID, limit int) *model.GameSession {
	session := model.NewGameSession(id, "creator.base.eth", 10, limit, 3600, baseTime)
	questions := []model.Question{
		{GameID: id, Stage: 2, Index: 0, Text: "q3", Options: []string{"a", "b"}, CorrectAnswer: "a", Fingerprint: "0x03"},
		{GameID: id, Stage: 1, Index: 1, Text: "q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Fingerprint: "0x02"},
		{GameID: id, Stage: 1, Index: 0, Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a", Fingerprint: "0x01"},
	}
	s.Require().NoError(s.Store.CreateSession(s.Ctx, session, questions))
	return session
}

func (s *Suite) join(id model.SessionID, handle string, limit int) error {
	return s.Store.AddParticipant(s.Ctx, &model.Participant{GameID: id, Handle: handle, JoinedAt: baseTime}, limit)
}

// Identity tests

func (s *Suite) TestGetIdentityNotFound() {
	_, err := s.Store.GetIdentity(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *Suite) TestUpsertAndGetIdentity() {
	identity := &model.Identity{
		Handle:         "alice",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: baseTime.Add(time.Hour),
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
	s.Require().NoError(s.Store.UpsertIdentity(s.Ctx, identity))

	got, err := s.Store.GetIdentity(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("access-1", got.AccessToken)
	s.Equal("refresh-1", got.RefreshToken)
	s.True(identity.TokenExpiresAt.Equal(got.TokenExpiresAt))
}

func (s *Suite) TestUpsertIdentityReplacesTokens() {
	s.Require().NoError(s.Store.UpsertIdentity(s.Ctx, &model.Identity{
		Handle: "alice", AccessToken: "old", RefreshToken: "old-refresh",
		TokenExpiresAt: baseTime, CreatedAt: baseTime, UpdatedAt: baseTime,
	}))
	s.Require().NoError(s.Store.UpsertIdentity(s.Ctx, &model.Identity{
		Handle: "alice", AccessToken: "new", RefreshToken: "new-refresh", WalletAddress: "0xabc",
		TokenExpiresAt: baseTime.Add(time.Hour), CreatedAt: baseTime, UpdatedAt: baseTime.Add(time.Minute),
	}))

	got, err := s.Store.GetIdentity(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("new", got.AccessToken)
	s.Equal("new-refresh", got.RefreshToken)
	s.Equal("0xabc", got.WalletAddress)
	s.True(baseTime.Add(time.Hour).Equal(got.TokenExpiresAt))
}

// OAuth state tests

func (s *Suite) TestOAuthStateIsSingleUse() {
	state := &model.OAuthState{State: "st-1", CodeVerifier: "verifier", ExpiresAt: baseTime.Add(10 * time.Minute)}
	s.Require().NoError(s.Store.SaveOAuthState(s.Ctx, state))

	got, err := s.Store.TakeOAuthState(s.Ctx, "st-1")
	s.Require().NoError(err)
	s.Equal("verifier", got.CodeVerifier)

	_, err = s.Store.TakeOAuthState(s.Ctx, "st-1")
	s.ErrorIs(err, model.ErrOAuthStateInvalid)
}

func (s *Suite) TestTakeUnknownOAuthState() {
	_, err := s.Store.TakeOAuthState(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrOAuthStateInvalid)
}

// Session tests

func (s *Suite) TestCreateAndGetSession() {
	created := s.createSession("game-1", 5)

	got, err := s.Store.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(created.CreatorBasename, got.CreatorBasename)
	s.Equal(created.PlayerLimit, got.PlayerLimit)
	s.Equal(created.StakeAmount, got.StakeAmount)
	s.True(created.EndTime.Equal(got.EndTime))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Store.GetSession(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestGetQuestionsOrderedByStageAndIndex() {
	s.createSession("game-1", 5)

	questions, err := s.Store.GetQuestions(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal([]string{"0x01", "0x02", "0x03"}, model.Fingerprints(questions))
	s.Equal([]string{"a", "b"}, questions[0].Options)
	s.Equal("a", questions[0].CorrectAnswer)
}

func (s *Suite) TestGetQuestionsUnknownSession() {
	questions, err := s.Store.GetQuestions(s.Ctx, "missing")
	s.Require().NoError(err)
	s.Empty(questions)
}

// Participant tests

func (s *Suite) TestAddParticipant() {
	s.createSession("game-1", 2)

	s.Require().NoError(s.join("game-1", "alice", 2))

	ok, err := s.Store.IsParticipant(s.Ctx, "game-1", "alice")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.Store.IsParticipant(s.Ctx, "game-1", "bob")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestAddParticipantUnknownSession() {
	err := s.join("missing", "alice", 2)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestAddParticipantTwiceFails() {
	s.createSession("game-1", 5)
	s.Require().NoError(s.join("game-1", "alice", 5))

	s.ErrorIs(s.join("game-1", "alice", 5), model.ErrAlreadyJoined)
}

func (s *Suite) TestAddParticipantAtCapacity() {
	s.createSession("game-1", 1)
	s.Require().NoError(s.join("game-1", "alice", 1))

	s.ErrorIs(s.join("game-1", "bob", 1), model.ErrCapacityExceeded)
	s.ErrorIs(s.join("game-1", "alice", 1), model.ErrAlreadyJoined)
}

func (s *Suite) TestConcurrentJoinsNeverExceedCapacity() {
	const limit = 5
	const joiners = 25
	s.createSession("game-1", limit)

	var wg sync.WaitGroup
	results := make(chan error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- s.join("game-1", fmt.Sprintf("player-%02d", i), limit)
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrCapacityExceeded)
		rejected++
	}
	s.Equal(limit, succeeded)
	s.Equal(joiners-limit, rejected)

	participants, err := s.Store.ListParticipants(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Len(participants, limit)
}

func (s *Suite) TestConcurrentJoinsBySameHandleAdmitOnce() {
	const attempts = 20
	s.createSession("game-1", 5)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.join("game-1", "alice", 5)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrAlreadyJoined)
	}
	s.Equal(1, succeeded)

	participants, err := s.Store.ListParticipants(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Len(participants, 1)
}

func (s *Suite) TestListParticipantsOrdered() {
	s.createSession("game-1", 5)
	s.Require().NoError(s.Store.AddParticipant(s.Ctx, &model.Participant{GameID: "game-1", Handle: "carol", JoinedAt: baseTime.Add(2 * time.Second)}, 5))
	s.Require().NoError(s.Store.AddParticipant(s.Ctx, &model.Participant{GameID: "game-1", Handle: "bob", JoinedAt: baseTime}, 5))
	s.Require().NoError(s.Store.AddParticipant(s.Ctx, &model.Participant{GameID: "game-1", Handle: "alice", JoinedAt: baseTime}, 5))

	participants, err := s.Store.ListParticipants(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(participants, 3)
	s.Equal("alice", participants[0].Handle)
	s.Equal("bob", participants[1].Handle)
	s.Equal("carol", participants[2].Handle)
}

// Submission tests

func (s *Suite) submission(id, handle string, stage, score int) *model.Submission {
	return &model.Submission{
		ID:                 id,
		GameID:             "game-1",
		Handle:             handle,
		Stage:              stage,
		Score:              score,
		AnswerFingerprints: []string{"0x01", "0x02"},
		SubmittedAt:        baseTime,
	}
}

func (s *Suite) TestSubmissionsKeepInsertionOrder() {
	s.createSession("game-1", 5)
	s.Require().NoError(s.Store.AddSubmission(s.Ctx, s.submission("sub-1", "bob", 1, 2), storage.SubmissionWrite{}))
	s.Require().NoError(s.Store.AddSubmission(s.Ctx, s.submission("sub-2", "alice", 1, 1), storage.SubmissionWrite{}))
	s.Require().NoError(s.Store.AddSubmission(s.Ctx, s.submission("sub-3", "bob", 1, 3), storage.SubmissionWrite{}))

	subs, err := s.Store.ListSubmissions(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(subs, 3)
	s.Equal("sub-1", subs[0].ID)
	s.Equal("sub-2", subs[1].ID)
	s.Equal("sub-3", subs[2].ID)
	s.Equal(3, subs[2].Score)
	s.Equal([]string{"0x01", "0x02"}, subs[0].AnswerFingerprints)
}

func (s *Suite) TestExclusiveSubmissionRejectsSecondAttempt() {
	s.createSession("game-1", 5)
	s.Require().NoError(s.Store.AddSubmission(s.Ctx, s.submission("sub-1", "alice", 1, 2), storage.SubmissionWrite{Exclusive: true}))

	err := s.Store.AddSubmission(s.Ctx, s.submission("sub-2", "alice", 1, 5), storage.SubmissionWrite{Exclusive: true})
	s.ErrorIs(err, model.ErrAlreadySubmitted)

	s.Require().NoError(s.Store.AddSubmission(s.Ctx, s.submission("sub-3", "alice", 2, 1), storage.SubmissionWrite{Exclusive: true}))

	subs, err := s.Store.ListSubmissions(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Len(subs, 2)
}

func (s *Suite) TestSubmissionUnknownSession() {
	err := s.Store.AddSubmission(s.Ctx, s.submission("sub-1", "alice", 1, 2), storage.SubmissionWrite{})
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestSubmissionStampedByWrite() {
	session := s.createSession("game-1", 5)
	stampedAt := session.EndTime

	sub := s.submission("sub-1", "alice", 1, 2)
	s.Require().NoError(s.Store.AddSubmission(s.Ctx, sub, storage.SubmissionWrite{
		Now: func() time.Time { return stampedAt },
	}))
	s.True(sub.SubmittedAt.Equal(stampedAt))

	subs, err := s.Store.ListSubmissions(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.True(subs[0].SubmittedAt.Equal(stampedAt))
}

func (s *Suite) TestSubmissionAfterDeadlineRejected() {
	session := s.createSession("game-1", 5)
	late := session.EndTime.Add(time.Millisecond)

	err := s.Store.AddSubmission(s.Ctx, s.submission("sub-1", "alice", 1, 2), storage.SubmissionWrite{
		Now: func() time.Time { return late },
	})
	s.ErrorIs(err, model.ErrSessionEnded)

	stale := s.submission("sub-2", "alice", 1, 2)
	stale.SubmittedAt = late
	s.ErrorIs(s.Store.AddSubmission(s.Ctx, stale, storage.SubmissionWrite{Exclusive: true}), model.ErrSessionEnded)

	subs, err := s.Store.ListSubmissions(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *Suite) TestListSubmissionsEmpty() {
	subs, err := s.Store.ListSubmissions(s.Ctx, "missing")
	s.Require().NoError(err)
	s.Empty(subs)
}

// Reward claim tests

func (s *Suite) TestRewardClaimLifecycle() {
	s.createSession("game-1", 5)
	claim := &model.RewardClaim{GameID: "game-1", Handle: "alice", Amount: 100, ClaimedAt: baseTime}

	s.Require().NoError(s.Store.ClaimReward(s.Ctx, claim))
	s.ErrorIs(s.Store.ClaimReward(s.Ctx, claim), model.ErrRewardAlreadyClaimed)

	s.Require().NoError(s.Store.CompleteRewardClaim(s.Ctx, "game-1", "alice", "0xtx"))
	got, err := s.Store.GetRewardClaim(s.Ctx, "game-1", "alice")
	s.Require().NoError(err)
	s.Equal("0xtx", got.TxRef)
	s.Equal(int64(100), got.Amount)
}

func (s *Suite) TestReleasedClaimCanBeRetaken() {
	s.createSession("game-1", 5)
	claim := &model.RewardClaim{GameID: "game-1", Handle: "alice", Amount: 100, ClaimedAt: baseTime}
	s.Require().NoError(s.Store.ClaimReward(s.Ctx, claim))

	s.Require().NoError(s.Store.ReleaseRewardClaim(s.Ctx, "game-1", "alice"))
	_, err := s.Store.GetRewardClaim(s.Ctx, "game-1", "alice")
	s.ErrorIs(err, model.ErrRewardClaimNotFound)

	s.NoError(s.Store.ClaimReward(s.Ctx, claim))
}

func (s *Suite) TestCompleteUnknownClaim() {
	err := s.Store.CompleteRewardClaim(s.Ctx, "game-1", "nobody", "0xtx")
	s.ErrorIs(err, model.ErrRewardClaimNotFound)
}
