package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TestReturnedSessionIsACopy() {
	session := model.NewGameSession("game-1", "creator", 0, 2, 60, time.Now())
	s.Require().NoError(s.storage.CreateSession(s.Ctx, session, nil))

	got, err := s.storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	got.PlayerLimit = 99

	again, err := s.storage.GetSession(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(2, again.PlayerLimit)
}
