package ingestion

import "github.com/mcoot/triviastake/internal/model"

// PinnedQuestion is the public form of a question. Correct answers are
// never pinned; the fingerprint is enough to verify a result later.
type PinnedQuestion struct {
	Stage       int      `json:"stage"`
	Index       int      `json:"index"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Fingerprint string   `json:"fingerprint"`
}

// PinnedQuestionSet is the document sent to the pinner
type PinnedQuestionSet struct {
	GameID    model.SessionID  `json:"game_id"`
	Questions []PinnedQuestion `json:"questions"`
}

// NewPinnedQuestionSet strips answers from a session's questions
func NewPinnedQuestionSet(id model.SessionID, questions []model.Question) PinnedQuestionSet {
	out := PinnedQuestionSet{GameID: id, Questions: make([]PinnedQuestion, len(questions))}
	for i, q := range questions {
		out.Questions[i] = PinnedQuestion{
			Stage:       q.Stage,
			Index:       q.Index,
			Question:    q.Text,
			Options:     q.Options,
			Fingerprint: q.Fingerprint,
		}
	}
	return out
}
