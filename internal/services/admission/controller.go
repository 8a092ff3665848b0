package admission

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/storage"
)

// Controller admits identities into sessions and serves session views
type Controller struct {
	storage storage.Storage
	auth    auth.ServiceInterface
	clock   clock.Clock
	events  model.Publisher
	logger  *slog.Logger
}

// NewController creates a new admission Controller
func NewController(
	storage storage.Storage,
	auth auth.ServiceInterface,
	clock clock.Clock,
	events model.Publisher,
	logger *slog.Logger,
) *Controller {
	if events == nil {
		events = model.NopPublisher{}
	}
	return &Controller{
		storage: storage,
		auth:    auth,
		clock:   clock,
		events:  events,
		logger:  logger,
	}
}

// Join admits handle into the session. The membership and capacity checks
// and the insert happen as one atomic storage operation.
func (c *Controller) Join(ctx context.Context, gameID model.SessionID, handle string) (*model.Participant, error) {
	if _, err := c.auth.RequireIdentity(ctx, handle); err != nil {
		return nil, err
	}

	session, err := c.GetSession(ctx, gameID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if session.IsEnded(now) {
		return nil, model.ErrSessionEnded
	}

	participant := &model.Participant{
		GameID:   gameID,
		Handle:   handle,
		JoinedAt: now,
	}
	if err := c.storage.AddParticipant(ctx, participant, session.PlayerLimit); err != nil {
		return nil, storage.WrapError(err)
	}

	c.logger.Info("participant joined",
		slog.String("game_id", string(gameID)),
		slog.String("handle", handle))
	c.publishJoined(ctx, session, handle, now)

	return participant, nil
}

func (c *Controller) publishJoined(ctx context.Context, session *model.GameSession, handle string, now time.Time) {
	participants, err := c.storage.ListParticipants(ctx, session.ID)
	if err != nil {
		c.logger.Warn("could not count participants for event",
			slog.String("game_id", string(session.ID)),
			slog.String("error", err.Error()))
		return
	}
	c.events.Publish(model.Event{
		Type:      model.EventParticipantJoined,
		Timestamp: now,
		GameID:    session.ID,
		Handle:    handle,
		Payload: model.ParticipantJoinedPayload{
			ParticipantCount: len(participants),
			PlayerLimit:      session.PlayerLimit,
		},
	})
}

// GetSession returns a session or ErrSessionNotFound
func (c *Controller) GetSession(ctx context.Context, gameID model.SessionID) (*model.GameSession, error) {
	if gameID == "" {
		return nil, model.ErrSessionNotFound
	}
	session, err := c.storage.GetSession(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	return session, nil
}

// Status returns the derived status of a session at the current instant
func (c *Controller) Status(session *model.GameSession) model.SessionStatus {
	return model.StatusAt(session, c.clock.Now())
}

// ListQuestions returns a session's questions ordered by stage and index
func (c *Controller) ListQuestions(ctx context.Context, gameID model.SessionID) ([]model.Question, error) {
	if _, err := c.GetSession(ctx, gameID); err != nil {
		return nil, err
	}
	questions, err := c.storage.GetQuestions(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	return questions, nil
}

// ListParticipants returns a session's participants in join order
func (c *Controller) ListParticipants(ctx context.Context, gameID model.SessionID) ([]model.Participant, error) {
	if _, err := c.GetSession(ctx, gameID); err != nil {
		return nil, err
	}
	participants, err := c.storage.ListParticipants(ctx, gameID)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	return participants, nil
}
