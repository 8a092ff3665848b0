package model

import "time"

// Submission is one scored attempt at a stage
type Submission struct {
	ID                 string    `json:"id"`
	GameID             SessionID `json:"game_id"`
	Handle             string    `json:"handle"`
	Stage              int       `json:"stage"`
	Score              int       `json:"score"`
	AnswerFingerprints []string  `json:"answer_fingerprints"`
	SubmittedAt        time.Time `json:"submitted_at"`
}

// LeaderboardEntry is a handle's best score across all stages
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Handle    string `json:"handle"`
	BestScore int    `json:"best_score"`
}

// RewardClaim records a mint for a top finisher. TxRef is empty while the
// mint is in flight.
type RewardClaim struct {
	GameID    SessionID `json:"game_id"`
	Handle    string    `json:"handle"`
	Amount    int64     `json:"amount"`
	TxRef     string    `json:"tx_ref,omitempty"`
	ClaimedAt time.Time `json:"claimed_at"`
}
