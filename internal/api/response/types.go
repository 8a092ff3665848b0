package response

import (
	"time"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/ingestion"
)

// CreateGameResponse is returned when a game is created
type CreateGameResponse struct {
	GameID               string    `json:"gameId"`
	EndTime              time.Time `json:"endTime"`
	QuestionFingerprints []string  `json:"questionFingerprints"`
	ContentAddress       *string   `json:"contentAddress,omitempty"`
	PinWarning           string    `json:"pinWarning,omitempty"`
}

// CreateGameFromResult converts an ingestion result
func CreateGameFromResult(r *ingestion.CreateResult) CreateGameResponse {
	return CreateGameResponse{
		GameID:               string(r.Session.ID),
		EndTime:              r.Session.EndTime,
		QuestionFingerprints: model.Fingerprints(r.Questions),
		ContentAddress:       r.ContentAddress,
		PinWarning:           r.PinWarning,
	}
}

// Game is the public view of a session
type Game struct {
	GameID          string    `json:"gameId"`
	CreatorBasename string    `json:"creatorBasename"`
	StakeAmount     int64     `json:"stakeAmount"`
	PlayerLimit     int       `json:"playerLimit"`
	DurationSeconds int64     `json:"durationSeconds"`
	SourceHandle    string    `json:"sourceHandle"`
	CreatedAt       time.Time `json:"createdAt"`
	EndTime         time.Time `json:"endTime"`
	Status          string    `json:"status"`
}

// GameFromModel converts a session and its derived status
func GameFromModel(s *model.GameSession, status model.SessionStatus) Game {
	return Game{
		GameID:          string(s.ID),
		CreatorBasename: s.CreatorBasename,
		StakeAmount:     s.StakeAmount,
		PlayerLimit:     s.PlayerLimit,
		DurationSeconds: s.DurationSeconds,
		SourceHandle:    s.SourceHandle,
		CreatedAt:       s.CreatedAt,
		EndTime:         s.EndTime,
		Status:          string(status),
	}
}

// Question omits the correct answer
type Question struct {
	Stage       int      `json:"stage"`
	Index       int      `json:"index"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Fingerprint string   `json:"fingerprint"`
}

// QuestionsFromModel converts questions for display
func QuestionsFromModel(questions []model.Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = Question{
			Stage:       q.Stage,
			Index:       q.Index,
			Question:    q.Text,
			Options:     q.Options,
			Fingerprint: q.Fingerprint,
		}
	}
	return out
}

// Participant is an admitted handle
type Participant struct {
	Handle   string    `json:"handle"`
	JoinedAt time.Time `json:"joinedAt"`
}

// ParticipantsFromModel converts participants
func ParticipantsFromModel(participants []model.Participant) []Participant {
	out := make([]Participant, len(participants))
	for i, p := range participants {
		out[i] = Participant{Handle: p.Handle, JoinedAt: p.JoinedAt}
	}
	return out
}

// LeaderboardEntry is one ranked handle
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Handle    string `json:"handle"`
	BestScore int    `json:"bestScore"`
}

// LeaderboardFromModel converts ranked entries
func LeaderboardFromModel(entries []model.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{Rank: e.Rank, Handle: e.Handle, BestScore: e.BestScore}
	}
	return out
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// SubmitResponse carries a stage score
type SubmitResponse struct {
	Score int `json:"score"`
}

// EligibilityResponse reports reward eligibility
type EligibilityResponse struct {
	Eligible bool `json:"eligible"`
}

// MintResponse carries the mint transaction reference
type MintResponse struct {
	TxRef string `json:"txRef"`
}

// LoginResponse starts an OAuth login
type LoginResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// HandleResponse confirms a completed login
type HandleResponse struct {
	Handle string `json:"handle"`
}

// WalletResponse confirms a linked wallet
type WalletResponse struct {
	Handle        string `json:"handle"`
	WalletAddress string `json:"walletAddress"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status string `json:"status"`
}
