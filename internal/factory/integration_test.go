package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/ingestion"
)

const aliceWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) createGame(limit int) *ingestion.CreateResult {
	s.Require().NoError(s.app.AddIdentity(s.ctx, "creator", ""))
	s.app.MockRandom.QueueUUID("game-1")

	result, err := s.app.IngestionService.CreateSession(s.ctx, ingestion.CreateRequest{
		CreatorBasename:  "creator.base.eth",
		StakeAmount:      10,
		PlayerLimit:      limit,
		DurationSeconds:  600,
		RequestingHandle: "creator",
	})
	s.Require().NoError(err)
	return result
}

func (s *IntegrationSuite) stageAnswers(result *ingestion.CreateResult, stage int) []string {
	return model.Fingerprints(model.QuestionsForStage(result.Questions, stage))
}

// Test: Complete session flow from login to reward
func (s *IntegrationSuite) TestCompleteSessionFlow() {
	// Step 1: Alice logs in and links a wallet
	s.app.MockOAuth.Handle = "alice"
	login, err := s.app.AuthService.BeginLogin(s.ctx)
	s.Require().NoError(err)
	identity, err := s.app.AuthService.CompleteLogin(s.ctx, login.State, "code")
	s.Require().NoError(err)
	s.Equal("alice", identity.Handle)
	_, err = s.app.AuthService.LinkWallet(s.ctx, "alice", aliceWallet)
	s.Require().NoError(err)
	s.Require().NoError(s.app.AddIdentity(s.ctx, "bob", ""))

	// Step 2: Create a session
	result := s.createGame(2)
	s.Equal(model.SessionID("game-1"), result.Session.ID)
	s.Len(result.Questions, 15)
	s.Require().NotNil(result.ContentAddress)

	// Step 3: Both players join
	_, err = s.app.AdmissionController.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	_, err = s.app.AdmissionController.Join(s.ctx, "game-1", "bob")
	s.Require().NoError(err)

	// Step 4: Submit stage answers
	answers := s.stageAnswers(result, 1)
	sub, err := s.app.ScoringService.Submit(s.ctx, "game-1", "alice", 1, answers)
	s.Require().NoError(err)
	s.Equal(5, sub.Score)

	partial := append([]string(nil), answers...)
	partial[0], partial[1] = "0x00", "0x00"
	sub, err = s.app.ScoringService.Submit(s.ctx, "game-1", "bob", 1, partial)
	s.Require().NoError(err)
	s.Equal(3, sub.Score)

	// Step 5: Standings reflect best scores
	entries, err := s.app.LeaderboardService.Rank(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal([]model.LeaderboardEntry{
		{Rank: 1, Handle: "alice", BestScore: 5},
		{Rank: 2, Handle: "bob", BestScore: 3},
	}, entries)

	// Step 6: Rewards wait for the deadline
	_, err = s.app.RewardService.Mint(s.ctx, "game-1", "alice", 100)
	s.ErrorIs(err, model.ErrSessionNotEnded)

	s.app.MockClock.Advance(601 * time.Second)

	_, err = s.app.ScoringService.Submit(s.ctx, "game-1", "bob", 2, s.stageAnswers(result, 2))
	s.ErrorIs(err, model.ErrSessionEnded)

	// Step 7: Alice claims her reward once
	claim, err := s.app.RewardService.Mint(s.ctx, "game-1", "alice", 100)
	s.Require().NoError(err)
	s.Equal("0xfeed", claim.TxRef)
	s.Equal([]mintCall{{aliceWallet, 100}}, toMintCalls(s.app))

	_, err = s.app.RewardService.Mint(s.ctx, "game-1", "alice", 100)
	s.ErrorIs(err, model.ErrRewardAlreadyClaimed)
}

func (s *IntegrationSuite) TestCapacityIsEnforced() {
	s.createGame(1)
	s.Require().NoError(s.app.AddIdentity(s.ctx, "alice", ""))
	s.Require().NoError(s.app.AddIdentity(s.ctx, "bob", ""))

	_, err := s.app.AdmissionController.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	_, err = s.app.AdmissionController.Join(s.ctx, "game-1", "bob")
	s.ErrorIs(err, model.ErrCapacityExceeded)
}

func (s *IntegrationSuite) TestEligibilityFollowsTopN() {
	result := s.createGame(5)
	answers := s.stageAnswers(result, 1)

	handles := []string{"p1", "p2", "p3", "p4"}
	for i, h := range handles {
		s.Require().NoError(s.app.AddIdentity(s.ctx, h, ""))
		_, err := s.app.AdmissionController.Join(s.ctx, "game-1", h)
		s.Require().NoError(err)

		// p1 answers all five correctly, p4 only two
		submitted := append([]string(nil), answers...)
		for j := 0; j < i; j++ {
			submitted[j] = "0x00"
		}
		_, err = s.app.ScoringService.Submit(s.ctx, "game-1", h, 1, submitted)
		s.Require().NoError(err)
	}

	s.app.MockClock.Advance(601 * time.Second)

	for i, h := range handles {
		eligible, err := s.app.RewardService.CheckEligible(s.ctx, "game-1", h)
		s.Require().NoError(err)
		s.Equal(i < 3, eligible, h)
	}

	// p4 is not eligible, so the missing wallet never matters
	_, err := s.app.RewardService.Mint(s.ctx, "game-1", "p4", 10)
	s.ErrorIs(err, model.ErrNotEligible)

	// p1 is eligible but never linked a wallet
	_, err = s.app.RewardService.Mint(s.ctx, "game-1", "p1", 10)
	s.ErrorIs(err, model.ErrWalletNotLinked)
	s.Empty(s.app.MockMinter.Calls())
}

func (s *IntegrationSuite) TestQuestionsArePinned() {
	s.createGame(2)
	s.Equal([]string{"trivia-game-1"}, s.app.MockPinner.Pinned())
}

type mintCall struct {
	wallet string
	amount int64
}

func toMintCalls(app *TestApp) []mintCall {
	var out []mintCall
	for _, c := range app.MockMinter.Calls() {
		out = append(out, mintCall{c.Wallet, c.Amount})
	}
	return out
}
