package storage

import (
	"context"
	"time"

	"github.com/mcoot/triviastake/internal/model"
)

// SubmissionWrite controls how AddSubmission commits a submission
type SubmissionWrite struct {
	// Exclusive rejects a second submission for the same (session, handle,
	// stage) with ErrAlreadySubmitted
	Exclusive bool
	// Now stamps SubmittedAt once the backend holds its lock on the session.
	// Nil keeps the timestamp already on the submission.
	Now func() time.Time
}

// Stamp applies w.Now to submission and checks it against the session
// deadline. Backends call it while holding whatever makes the insert atomic.
func (w SubmissionWrite) Stamp(submission *model.Submission, session *model.GameSession) error {
	if w.Now != nil {
		submission.SubmittedAt = w.Now()
	}
	if session.IsEnded(submission.SubmittedAt) {
		return model.ErrSessionEnded
	}
	return nil
}

// Storage defines the interface for data persistence.
//
// Every backend must make CreateSession all-or-nothing, and must make
// AddParticipant and AddSubmission atomic with respect to concurrent callers
// for the same session.
type Storage interface {
	// Identity operations
	GetIdentity(ctx context.Context, handle string) (*model.Identity, error)
	UpsertIdentity(ctx context.Context, identity *model.Identity) error

	// OAuth state operations. TakeOAuthState removes the state so it can be
	// redeemed once; an unknown state returns ErrOAuthStateInvalid.
	SaveOAuthState(ctx context.Context, state *model.OAuthState) error
	TakeOAuthState(ctx context.Context, state string) (*model.OAuthState, error)

	// Session operations. GetQuestions returns questions ordered by
	// (stage, index) and an empty slice for an unknown session.
	CreateSession(ctx context.Context, session *model.GameSession, questions []model.Question) error
	GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error)
	GetQuestions(ctx context.Context, id model.SessionID) ([]model.Question, error)

	// Participant operations. AddParticipant checks membership, then
	// capacity against limit, then inserts, as one atomic step.
	AddParticipant(ctx context.Context, participant *model.Participant, limit int) error
	IsParticipant(ctx context.Context, id model.SessionID, handle string) (bool, error)
	ListParticipants(ctx context.Context, id model.SessionID) ([]model.Participant, error)

	// Submission operations. AddSubmission rejects an unknown session with
	// ErrSessionNotFound and a SubmittedAt past the session's end with
	// ErrSessionEnded; see SubmissionWrite for the rest.
	AddSubmission(ctx context.Context, submission *model.Submission, write SubmissionWrite) error
	ListSubmissions(ctx context.Context, id model.SessionID) ([]model.Submission, error)

	// Reward claim operations
	ClaimReward(ctx context.Context, claim *model.RewardClaim) error
	CompleteRewardClaim(ctx context.Context, id model.SessionID, handle string, txRef string) error
	ReleaseRewardClaim(ctx context.Context, id model.SessionID, handle string) error
	GetRewardClaim(ctx context.Context, id model.SessionID, handle string) (*model.RewardClaim, error)
}
