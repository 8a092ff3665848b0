package postgres

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mcoot/triviastake/internal/model"
)

type identityRecord struct {
	Handle         string `gorm:"primaryKey;size:64"`
	WalletAddress  string `gorm:"size:64"`
	AccessToken    string `gorm:"not null"`
	RefreshToken   string `gorm:"not null"`
	TokenExpiresAt time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (identityRecord) TableName() string { return "identities" }

type oauthStateRecord struct {
	State        string    `gorm:"primaryKey;size:128"`
	CodeVerifier string    `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null"`
}

func (oauthStateRecord) TableName() string { return "oauth_states" }

type sessionRecord struct {
	ID              string    `gorm:"primaryKey;size:64"`
	CreatorBasename string    `gorm:"size:255;not null"`
	StakeAmount     int64     `gorm:"not null;default:0"`
	PlayerLimit     int       `gorm:"not null"`
	DurationSeconds int64     `gorm:"not null"`
	SourceHandle    string    `gorm:"size:64"`
	CreatedAt       time.Time `gorm:"not null"`
	EndTime         time.Time `gorm:"not null"`
}

func (sessionRecord) TableName() string { return "game_sessions" }

type questionRecord struct {
	ID            uint                       `gorm:"primaryKey"`
	GameID        string                     `gorm:"size:64;not null;uniqueIndex:idx_questions_game_stage_idx"`
	Stage         int                        `gorm:"not null;uniqueIndex:idx_questions_game_stage_idx"`
	Index         int                        `gorm:"column:idx;not null;uniqueIndex:idx_questions_game_stage_idx"`
	Text          string                     `gorm:"not null"`
	Options       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CorrectAnswer string                     `gorm:"not null"`
	Fingerprint   string                     `gorm:"size:80;not null"`
}

func (questionRecord) TableName() string { return "questions" }

type participantRecord struct {
	GameID   string    `gorm:"primaryKey;size:64"`
	Handle   string    `gorm:"primaryKey;size:64"`
	JoinedAt time.Time `gorm:"not null"`
}

func (participantRecord) TableName() string { return "participants" }

// submissionRecord is ordered by Seq, which preserves insertion order
type submissionRecord struct {
	Seq                uint                       `gorm:"primaryKey;autoIncrement"`
	ID                 string                     `gorm:"size:64;uniqueIndex;not null"`
	GameID             string                     `gorm:"size:64;not null;index:idx_submissions_game_handle_stage"`
	Handle             string                     `gorm:"size:64;not null;index:idx_submissions_game_handle_stage"`
	Stage              int                        `gorm:"not null;index:idx_submissions_game_handle_stage"`
	Score              int                        `gorm:"not null"`
	AnswerFingerprints datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	SubmittedAt        time.Time                  `gorm:"not null"`
}

func (submissionRecord) TableName() string { return "submissions" }

type rewardClaimRecord struct {
	GameID    string    `gorm:"primaryKey;size:64"`
	Handle    string    `gorm:"primaryKey;size:64"`
	Amount    int64     `gorm:"not null"`
	TxRef     string    `gorm:"size:80"`
	ClaimedAt time.Time `gorm:"not null"`
}

func (rewardClaimRecord) TableName() string { return "reward_claims" }

func allRecords() []any {
	return []any{
		&identityRecord{},
		&oauthStateRecord{},
		&sessionRecord{},
		&questionRecord{},
		&participantRecord{},
		&submissionRecord{},
		&rewardClaimRecord{},
	}
}

func toIdentityRecord(i *model.Identity) identityRecord {
	return identityRecord{
		Handle:         i.Handle,
		WalletAddress:  i.WalletAddress,
		AccessToken:    i.AccessToken,
		RefreshToken:   i.RefreshToken,
		TokenExpiresAt: i.TokenExpiresAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func (r identityRecord) toModel() *model.Identity {
	return &model.Identity{
		Handle:         r.Handle,
		WalletAddress:  r.WalletAddress,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		TokenExpiresAt: r.TokenExpiresAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toSessionRecord(s *model.GameSession) sessionRecord {
	return sessionRecord{
		ID:              string(s.ID),
		CreatorBasename: s.CreatorBasename,
		StakeAmount:     s.StakeAmount,
		PlayerLimit:     s.PlayerLimit,
		DurationSeconds: s.DurationSeconds,
		SourceHandle:    s.SourceHandle,
		CreatedAt:       s.CreatedAt,
		EndTime:         s.EndTime,
	}
}

func (r sessionRecord) toModel() *model.GameSession {
	return &model.GameSession{
		ID:              model.SessionID(r.ID),
		CreatorBasename: r.CreatorBasename,
		StakeAmount:     r.StakeAmount,
		PlayerLimit:     r.PlayerLimit,
		DurationSeconds: r.DurationSeconds,
		SourceHandle:    r.SourceHandle,
		CreatedAt:       r.CreatedAt,
		EndTime:         r.EndTime,
	}
}

func toQuestionRecord(q model.Question) questionRecord {
	return questionRecord{
		GameID:        string(q.GameID),
		Stage:         q.Stage,
		Index:         q.Index,
		Text:          q.Text,
		Options:       datatypes.JSONSlice[string](q.Options),
		CorrectAnswer: q.CorrectAnswer,
		Fingerprint:   q.Fingerprint,
	}
}

func (r questionRecord) toModel() model.Question {
	return model.Question{
		GameID:        model.SessionID(r.GameID),
		Stage:         r.Stage,
		Index:         r.Index,
		Text:          r.Text,
		Options:       []string(r.Options),
		CorrectAnswer: r.CorrectAnswer,
		Fingerprint:   r.Fingerprint,
	}
}

func (r participantRecord) toModel() model.Participant {
	return model.Participant{
		GameID:   model.SessionID(r.GameID),
		Handle:   r.Handle,
		JoinedAt: r.JoinedAt,
	}
}

func toSubmissionRecord(s *model.Submission) submissionRecord {
	fingerprints := s.AnswerFingerprints
	if fingerprints == nil {
		fingerprints = []string{}
	}
	return submissionRecord{
		ID:                 s.ID,
		GameID:             string(s.GameID),
		Handle:             s.Handle,
		Stage:              s.Stage,
		Score:              s.Score,
		AnswerFingerprints: datatypes.JSONSlice[string](fingerprints),
		SubmittedAt:        s.SubmittedAt,
	}
}

func (r submissionRecord) toModel() model.Submission {
	return model.Submission{
		ID:                 r.ID,
		GameID:             model.SessionID(r.GameID),
		Handle:             r.Handle,
		Stage:              r.Stage,
		Score:              r.Score,
		AnswerFingerprints: []string(r.AnswerFingerprints),
		SubmittedAt:        r.SubmittedAt,
	}
}

func (r rewardClaimRecord) toModel() *model.RewardClaim {
	return &model.RewardClaim{
		GameID:    model.SessionID(r.GameID),
		Handle:    r.Handle,
		Amount:    r.Amount,
		TxRef:     r.TxRef,
		ClaimedAt: r.ClaimedAt,
	}
}
