package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventParticipantJoined  EventType = "participant-joined"
	EventSubmissionScored   EventType = "submission-scored"
	EventLeaderboardUpdated EventType = "leaderboard-updated"
	EventRewardMinted       EventType = "reward-minted"
)

// Event is the base structure for all session events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GameID    SessionID `json:"game_id"`
	Handle    string    `json:"handle,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// ParticipantJoinedPayload contains data for participant joined events
type ParticipantJoinedPayload struct {
	ParticipantCount int `json:"participant_count"`
	PlayerLimit      int `json:"player_limit"`
}

// SubmissionScoredPayload contains data for submission scored events
type SubmissionScoredPayload struct {
	Stage int `json:"stage"`
	Score int `json:"score"`
}

// LeaderboardUpdatedPayload carries the current standings
type LeaderboardUpdatedPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// RewardMintedPayload contains data for reward minted events
type RewardMintedPayload struct {
	Amount int64  `json:"amount"`
	TxRef  string `json:"tx_ref"`
}

// Publisher delivers session events to live subscribers. Delivery is best
// effort and must not block the caller.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
