package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/testutil"
)

// completionServer replies with each content in turn, repeating the last
func completionServer(t *testing.T, contents ...string) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		n := int(calls.Add(1)) - 1
		if n >= len(contents) {
			n = len(contents) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": contents[n]},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newGenerator(server *httptest.Server) *Generator {
	return New(Config{APIKey: "sk-test", BaseURL: server.URL, Questions: 2}, fingerprint.Default(), testutil.NopLogger(),
		option.WithHTTPClient(server.Client()), option.WithMaxRetries(0))
}

var source = model.SourceText{Handle: "alice", Tweets: []model.Tweet{{Text: "went hiking"}}}

const twoQuestions = `[
	{"question": "Where did alice go?", "options": ["Hiking", "Beach", "Mall", "Home"], "correct_answer": 0},
	{"question": "What did alice drink?", "options": ["Tea", "Coffee", "Juice", "Water"], "correct_answer": 1}
]`

func TestGenerate(t *testing.T) {
	server, calls := completionServer(t, twoQuestions)

	questions, err := newGenerator(server).Generate(context.Background(), source)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	require.Len(t, questions, 2)
	assert.Equal(t, "Hiking", questions[0].CorrectAnswer)
	assert.Equal(t, "Coffee", questions[1].CorrectAnswer)
	assert.Equal(t, fingerprint.Default().Compute("What did alice drink?", "Coffee"), questions[1].Hash)
}

func TestGenerateStripsCodeFences(t *testing.T) {
	server, _ := completionServer(t, "```json\n"+twoQuestions+"\n```")

	questions, err := newGenerator(server).Generate(context.Background(), source)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerateRetriesMalformedOutput(t *testing.T) {
	server, calls := completionServer(t, "Sure! Here are your questions", twoQuestions)

	questions, err := newGenerator(server).Generate(context.Background(), source)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGenerateGivesUpAfterAttempts(t *testing.T) {
	server, calls := completionServer(t, `{"not": "an array"}`)

	_, err := newGenerator(server).Generate(context.Background(), source)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGenerateTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	_, err := newGenerator(server).Generate(context.Background(), source)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedOutput)
}

func TestParseDropsUnusableEntries(t *testing.T) {
	g := New(Config{APIKey: "sk-test"}, fingerprint.Default(), testutil.NopLogger())

	questions, err := g.parse(`[
		{"question": "", "options": ["a", "b"], "correct_answer": 0},
		{"question": "q1", "options": ["a"], "correct_answer": 0},
		{"question": "q2", "options": ["a", "b"], "correct_answer": 4},
		{"question": "q3", "options": ["a", "b"], "correct_answer": "a"},
		{"question": "q4", "options": ["a", "b"], "correct_answer": 1}
	]`)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "q4", questions[0].Question)
	assert.Equal(t, "b", questions[0].CorrectAnswer)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "[1]", stripFences("[1]"))
	assert.Equal(t, "[1]", stripFences("```\n[1]\n```"))
	assert.Equal(t, "[1]", stripFences("  ```json\n[1]\n```  "))
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(source, 15)
	assert.Contains(t, prompt, "exactly 15 trivia questions")
	assert.Contains(t, prompt, "went hiking")
}
