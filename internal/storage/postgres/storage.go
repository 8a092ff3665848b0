// Package postgres is a gorm-backed implementation of storage.Storage.
//
// Schema changes are applied by cmd/migrate from db/migrations. Migrate is an
// AutoMigrate shortcut for tests and local development.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	db *gorm.DB
}

// Open connects to Postgres using the given DSN
func Open(dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database url is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing gorm connection
func NewWithDB(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

// Migrate runs gorm auto-migrations for every table
func (s *Storage) Migrate() error {
	return s.db.AutoMigrate(allRecords()...)
}

// SetMaxOpenConns bounds the connection pool
func (s *Storage) SetMaxOpenConns(n int) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(n)
	return nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) GetIdentity(ctx context.Context, handle string) (*model.Identity, error) {
	var record identityRecord
	err := s.db.WithContext(ctx).Where("handle = ?", handle).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrIdentityNotFound
		}
		return nil, err
	}
	return record.toModel(), nil
}

func (s *Storage) UpsertIdentity(ctx context.Context, identity *model.Identity) error {
	record := toIdentityRecord(identity)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"wallet_address", "access_token", "refresh_token", "token_expires_at", "created_at", "updated_at",
		}),
	}).Create(&record).Error
}

// OAuth state operations

func (s *Storage) SaveOAuthState(ctx context.Context, state *model.OAuthState) error {
	record := oauthStateRecord{
		State:        state.State,
		CodeVerifier: state.CodeVerifier,
		ExpiresAt:    state.ExpiresAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
}

func (s *Storage) TakeOAuthState(ctx context.Context, state string) (*model.OAuthState, error) {
	var records []oauthStateRecord
	err := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("state = ?", state).
		Delete(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.ErrOAuthStateInvalid
	}
	return &model.OAuthState{
		State:        records[0].State,
		CodeVerifier: records[0].CodeVerifier,
		ExpiresAt:    records[0].ExpiresAt,
	}, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.GameSession, questions []model.Question) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toSessionRecord(session)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		records := make([]questionRecord, len(questions))
		for i, q := range questions {
			records[i] = toQuestionRecord(q)
		}
		return tx.Create(&records).Error
	})
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	var record sessionRecord
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return record.toModel(), nil
}

func (s *Storage) GetQuestions(ctx context.Context, id model.SessionID) ([]model.Question, error) {
	var records []questionRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ?", string(id)).
		Order("stage ASC").Order("idx ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, len(records))
	for i, r := range records {
		questions[i] = r.toModel()
	}
	return questions, nil
}

// lockSession takes a row lock on the session so concurrent writers for the
// same session serialize behind it
func lockSession(tx *gorm.DB, id string) (*sessionRecord, error) {
	var record sessionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Participant operations

func (s *Storage) AddParticipant(ctx context.Context, participant *model.Participant, limit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gameID := string(participant.GameID)
		if _, err := lockSession(tx, gameID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&participantRecord{}).
			Where("game_id = ? AND handle = ?", gameID, participant.Handle).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return model.ErrAlreadyJoined
		}

		var count int64
		if err := tx.Model(&participantRecord{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(limit) {
			return model.ErrCapacityExceeded
		}

		record := participantRecord{
			GameID:   gameID,
			Handle:   participant.Handle,
			JoinedAt: participant.JoinedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return model.ErrAlreadyJoined
			}
			return err
		}
		return nil
	})
}

func (s *Storage) IsParticipant(ctx context.Context, id model.SessionID, handle string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&participantRecord{}).
		Where("game_id = ? AND handle = ?", string(id), handle).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) ListParticipants(ctx context.Context, id model.SessionID) ([]model.Participant, error) {
	var records []participantRecord
	err := s.db.WithContext(ctx).Where("game_id = ?", string(id)).Find(&records).Error
	if err != nil {
		return nil, err
	}
	participants := make([]model.Participant, len(records))
	for i, r := range records {
		participants[i] = r.toModel()
	}
	storage.SortParticipants(participants)
	return participants, nil
}

// Submission operations

// AddSubmission stamps the submission after taking the session row lock, so
// the deadline is judged as close to the commit as the transaction allows
func (s *Storage) AddSubmission(ctx context.Context, submission *model.Submission, write storage.SubmissionWrite) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockSession(tx, string(submission.GameID))
		if err != nil {
			return err
		}
		if err := write.Stamp(submission, locked.toModel()); err != nil {
			return err
		}

		record := toSubmissionRecord(submission)
		if write.Exclusive {
			var count int64
			if err := tx.Model(&submissionRecord{}).
				Where("game_id = ? AND handle = ? AND stage = ?", record.GameID, record.Handle, record.Stage).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return model.ErrAlreadySubmitted
			}
		}
		return tx.Create(&record).Error
	})
}

func (s *Storage) ListSubmissions(ctx context.Context, id model.SessionID) ([]model.Submission, error) {
	var records []submissionRecord
	err := s.db.WithContext(ctx).Where("game_id = ?", string(id)).Order("seq ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	submissions := make([]model.Submission, len(records))
	for i, r := range records {
		submissions[i] = r.toModel()
	}
	return submissions, nil
}

// Reward claim operations

func (s *Storage) ClaimReward(ctx context.Context, claim *model.RewardClaim) error {
	record := rewardClaimRecord{
		GameID:    string(claim.GameID),
		Handle:    claim.Handle,
		Amount:    claim.Amount,
		TxRef:     claim.TxRef,
		ClaimedAt: claim.ClaimedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return model.ErrRewardAlreadyClaimed
		}
		return err
	}
	return nil
}

func (s *Storage) CompleteRewardClaim(ctx context.Context, id model.SessionID, handle string, txRef string) error {
	result := s.db.WithContext(ctx).Model(&rewardClaimRecord{}).
		Where("game_id = ? AND handle = ?", string(id), handle).
		Update("tx_ref", txRef)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrRewardClaimNotFound
	}
	return nil
}

func (s *Storage) ReleaseRewardClaim(ctx context.Context, id model.SessionID, handle string) error {
	return s.db.WithContext(ctx).
		Where("game_id = ? AND handle = ?", string(id), handle).
		Delete(&rewardClaimRecord{}).Error
}

func (s *Storage) GetRewardClaim(ctx context.Context, id model.SessionID, handle string) (*model.RewardClaim, error) {
	var record rewardClaimRecord
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND handle = ?", string(id), handle).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrRewardClaimNotFound
		}
		return nil, err
	}
	return record.toModel(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
