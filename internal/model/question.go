package model

import "time"

const (
	DefaultStageCount        = 3
	DefaultQuestionsPerStage = 5
)

// Tweet is one entry of source text used to generate questions
type Tweet struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceText is the tweet set fed to the question generator
type SourceText struct {
	Handle   string  `json:"handle"`
	Tweets   []Tweet `json:"tweets"`
	Fallback bool    `json:"fallback"`
}

// GeneratedQuestion is the generator's output before stage assignment
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Hash          string   `json:"hash"`
}

// Question belongs to exactly one stage of one session
type Question struct {
	GameID        SessionID `json:"game_id"`
	Stage         int       `json:"stage"`
	Index         int       `json:"index"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Fingerprint   string    `json:"fingerprint"`
}

// QuestionsForStage returns the questions of one stage in index order.
// Input is expected to already be ordered by (stage, index).
func QuestionsForStage(questions []Question, stage int) []Question {
	var out []Question
	for _, q := range questions {
		if q.Stage == stage {
			out = append(out, q)
		}
	}
	return out
}

// Fingerprints extracts the correct-answer fingerprints in order
func Fingerprints(questions []Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.Fingerprint
	}
	return out
}
