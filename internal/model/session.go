package model

import "time"

// SessionID uniquely identifies a game session
type SessionID string

// SessionStatus is derived from the clock, never stored
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// GameSession is an immutable record of a timed trivia game
type GameSession struct {
	ID              SessionID `json:"id"`
	CreatorBasename string    `json:"creator_basename"`
	StakeAmount     int64     `json:"stake_amount"`
	PlayerLimit     int       `json:"player_limit"`
	DurationSeconds int64     `json:"duration_seconds"`
	SourceHandle    string    `json:"source_handle"`
	CreatedAt       time.Time `json:"created_at"`
	EndTime         time.Time `json:"end_time"`
}

// NewGameSession builds a session whose deadline is measured from createdAt
func NewGameSession(id SessionID, creatorBasename string, stakeAmount int64, playerLimit int, durationSeconds int64, createdAt time.Time) *GameSession {
	return &GameSession{
		ID:              id,
		CreatorBasename: creatorBasename,
		StakeAmount:     stakeAmount,
		PlayerLimit:     playerLimit,
		DurationSeconds: durationSeconds,
		CreatedAt:       createdAt,
		EndTime:         createdAt.Add(time.Duration(durationSeconds) * time.Second),
	}
}

// StatusAt returns the session status at the given instant.
// The session is still active at exactly EndTime.
func StatusAt(session *GameSession, now time.Time) SessionStatus {
	if now.After(session.EndTime) {
		return SessionStatusEnded
	}
	return SessionStatusActive
}

// Status is shorthand for StatusAt(s, now)
func (s *GameSession) Status(now time.Time) SessionStatus {
	return StatusAt(s, now)
}

// IsEnded reports whether the session has closed at now
func (s *GameSession) IsEnded(now time.Time) bool {
	return StatusAt(s, now) == SessionStatusEnded
}

// Participant records an identity admitted to a session
type Participant struct {
	GameID   SessionID `json:"game_id"`
	Handle   string    `json:"handle"`
	JoinedAt time.Time `json:"joined_at"`
}
