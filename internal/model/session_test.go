package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := NewGameSession("game-1", "creator.base.eth", 10, 5, 60, created)

	tests := []struct {
		name     string
		now      time.Time
		expected SessionStatus
	}{
		{"at creation", created, SessionStatusActive},
		{"one second before end", created.Add(59 * time.Second), SessionStatusActive},
		{"exactly at end", created.Add(60 * time.Second), SessionStatusActive},
		{"one nanosecond after end", created.Add(60*time.Second + time.Nanosecond), SessionStatusEnded},
		{"long after end", created.Add(24 * time.Hour), SessionStatusEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusAt(session, tt.now))
			assert.Equal(t, tt.expected == SessionStatusEnded, session.IsEnded(tt.now))
		})
	}
}

func TestNewGameSessionEndTime(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := NewGameSession("game-1", "creator.base.eth", 0, 1, 3600, created)

	assert.Equal(t, created.Add(time.Hour), session.EndTime)
}

func TestIdentityTokenExpired(t *testing.T) {
	expiry := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	identity := &Identity{Handle: "alice", TokenExpiresAt: expiry}

	assert.False(t, identity.TokenExpired(expiry.Add(-time.Second)))
	assert.False(t, identity.TokenExpired(expiry))
	assert.True(t, identity.TokenExpired(expiry.Add(time.Second)))
}

func TestQuestionsForStage(t *testing.T) {
	questions := []Question{
		{Stage: 1, Index: 0, Fingerprint: "a"},
		{Stage: 1, Index: 1, Fingerprint: "b"},
		{Stage: 2, Index: 0, Fingerprint: "c"},
	}

	assert.Equal(t, []string{"a", "b"}, Fingerprints(QuestionsForStage(questions, 1)))
	assert.Equal(t, []string{"c"}, Fingerprints(QuestionsForStage(questions, 2)))
	assert.Empty(t, QuestionsForStage(questions, 3))
}
