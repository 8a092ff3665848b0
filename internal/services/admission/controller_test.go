package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviastake/internal/dependencies/mocks"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/storage/memory"
	"github.com/mcoot/triviastake/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	events     *mocks.Publisher
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.events = &mocks.Publisher{}
	authService := auth.New(s.storage, &mocks.OAuthProvider{}, s.clock, mocks.NewMockRandom(), auth.DefaultConfig(), logger)
	s.controller = NewController(s.storage, authService, s.clock, s.events, logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) identity(handles ...string) {
	for _, h := range handles {
		s.Require().NoError(s.storage.UpsertIdentity(s.ctx, &model.Identity{Handle: h, AccessToken: "a"}))
	}
}

func (s *ControllerSuite) session(limit int, duration int64) *model.GameSession {
	session := model.NewGameSession("game-1", "creator", 0, limit, duration, s.clock.Now())
	questions := []model.Question{
		{GameID: "game-1", Stage: 1, Index: 0, Text: "q", Options: []string{"a", "b"}, CorrectAnswer: "a", Fingerprint: "0x01"},
	}
	s.Require().NoError(s.storage.CreateSession(s.ctx, session, questions))
	return session
}

// Join tests

func (s *ControllerSuite) TestJoinSucceeds() {
	s.identity("alice")
	s.session(2, 60)

	participant, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	s.Equal("alice", participant.Handle)
	s.True(participant.JoinedAt.Equal(s.clock.Now()))

	ok, err := s.storage.IsParticipant(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ControllerSuite) TestJoinPublishesEvent() {
	s.identity("alice")
	s.session(2, 60)

	_, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)

	events := s.events.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventParticipantJoined, events[0].Type)
	s.Equal("alice", events[0].Handle)
	s.Equal(model.ParticipantJoinedPayload{ParticipantCount: 1, PlayerLimit: 2}, events[0].Payload)
}

func (s *ControllerSuite) TestJoinRequiresIdentity() {
	s.session(2, 60)

	_, err := s.controller.Join(s.ctx, "game-1", "stranger")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ControllerSuite) TestJoinUnknownSession() {
	s.identity("alice")

	_, err := s.controller.Join(s.ctx, "missing", "alice")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestJoinAuthCheckedBeforeSession() {
	_, err := s.controller.Join(s.ctx, "missing", "stranger")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ControllerSuite) TestJoinAtDeadlineIsAllowed() {
	s.identity("alice")
	s.session(2, 60)
	s.clock.Advance(60 * time.Second)

	_, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.NoError(err)
}

func (s *ControllerSuite) TestJoinAfterDeadline() {
	s.identity("alice")
	s.session(2, 60)
	s.clock.Advance(60*time.Second + time.Nanosecond)

	_, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.ErrorIs(err, model.ErrSessionEnded)
	s.Empty(s.events.Events())
}

func (s *ControllerSuite) TestJoinTwice() {
	s.identity("alice")
	s.session(2, 60)

	_, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, "game-1", "alice")
	s.ErrorIs(err, model.ErrAlreadyJoined)
}

func (s *ControllerSuite) TestJoinAtCapacity() {
	s.identity("alice", "bob", "carol")
	s.session(2, 60)

	_, err := s.controller.Join(s.ctx, "game-1", "alice")
	s.Require().NoError(err)
	_, err = s.controller.Join(s.ctx, "game-1", "bob")
	s.Require().NoError(err)

	_, err = s.controller.Join(s.ctx, "game-1", "carol")
	s.ErrorIs(err, model.ErrCapacityExceeded)

	// A member retrying a full session is told they already joined
	_, err = s.controller.Join(s.ctx, "game-1", "alice")
	s.ErrorIs(err, model.ErrAlreadyJoined)
}

func (s *ControllerSuite) TestConcurrentJoinsNeverExceedLimit() {
	const limit = 3
	const joiners = 20
	handles := make([]string, joiners)
	for i := range handles {
		handles[i] = fmt.Sprintf("player-%02d", i)
	}
	s.identity(handles...)
	s.session(limit, 60)

	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h string) {
			defer wg.Done()
			_, errs[i] = s.controller.Join(s.ctx, "game-1", h)
		}(i, h)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		s.ErrorIs(err, model.ErrCapacityExceeded)
	}
	s.Equal(limit, admitted)

	participants, err := s.controller.ListParticipants(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(participants, limit)
}

func (s *ControllerSuite) TestConcurrentJoinsBySameHandle() {
	const attempts = 10
	s.identity("alice")
	s.session(5, 60)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.Join(s.ctx, "game-1", "alice")
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		s.ErrorIs(err, model.ErrAlreadyJoined)
	}
	s.Equal(1, admitted)
	s.Len(s.events.Events(), 1)
}

// View tests

func (s *ControllerSuite) TestGetSessionAndStatus() {
	s.session(2, 60)

	session, err := s.controller.GetSession(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.SessionStatusActive, s.controller.Status(session))

	s.clock.Advance(time.Minute + time.Second)
	s.Equal(model.SessionStatusEnded, s.controller.Status(session))
}

func (s *ControllerSuite) TestListQuestions() {
	s.session(2, 60)

	questions, err := s.controller.ListQuestions(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(questions, 1)

	_, err = s.controller.ListQuestions(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestListParticipantsUnknownSession() {
	_, err := s.controller.ListParticipants(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}
