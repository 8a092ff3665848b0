// Package openai generates trivia questions from source text with a chat
// completion model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/ingestion"
)

// ErrMalformedOutput is returned when the model's reply cannot be read as
// a question list
var ErrMalformedOutput = errors.New("malformed model output")

// Config holds generator settings
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Questions int
	// Attempts bounds how often a malformed reply is retried
	Attempts int
}

// Ensure Generator implements ingestion.Generator
var _ ingestion.Generator = (*Generator)(nil)

// Generator asks a chat model for multiple choice questions
type Generator struct {
	client    openai.Client
	model     string
	questions int
	attempts  int
	hasher    *fingerprint.Hasher
	logger    *slog.Logger
}

// New creates a Generator. Extra request options are applied after the
// configured key and base URL.
func New(cfg Config, hasher *fingerprint.Hasher, logger *slog.Logger, opts ...option.RequestOption) *Generator {
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Questions <= 0 {
		cfg.Questions = model.DefaultStageCount * model.DefaultQuestionsPerStage
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return &Generator{
		client:    openai.NewClient(clientOpts...),
		model:     cfg.Model,
		questions: cfg.Questions,
		attempts:  cfg.Attempts,
		hasher:    hasher,
		logger:    logger,
	}
}

// Generate requests questions and parses the reply. Transport errors are
// returned immediately; malformed replies are retried.
func (g *Generator) Generate(ctx context.Context, source model.SourceText) ([]model.GeneratedQuestion, error) {
	prompt := buildPrompt(source, g.questions)

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(g.model),
			Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
			MaxTokens:   openai.Int(3000),
			Temperature: openai.Float(0.7),
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("%w: no choices", ErrMalformedOutput)
			continue
		}

		questions, err := g.parse(resp.Choices[0].Message.Content)
		if err == nil {
			g.logger.Info("generated questions",
				slog.String("handle", source.Handle),
				slog.Int("questions", len(questions)),
				slog.Int("attempt", attempt))
			return questions, nil
		}
		lastErr = err
		g.logger.Warn("model output rejected",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
	}
	return nil, lastErr
}

// parse reads a JSON array of {question, options, correct_answer} where
// correct_answer is an option index. Entries that do not fit are dropped.
func (g *Generator) parse(content string) ([]model.GeneratedQuestion, error) {
	content = stripFences(content)
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("%w: not JSON", ErrMalformedOutput)
	}
	parsed := gjson.Parse(content)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: expected an array", ErrMalformedOutput)
	}

	var out []model.GeneratedQuestion
	for _, item := range parsed.Array() {
		text := strings.TrimSpace(item.Get("question").String())
		var options []string
		for _, opt := range item.Get("options").Array() {
			options = append(options, opt.String())
		}
		answer := item.Get("correct_answer")
		if text == "" || len(options) < 2 || answer.Type != gjson.Number {
			continue
		}
		idx := int(answer.Int())
		if idx < 0 || idx >= len(options) {
			continue
		}
		out = append(out, model.GeneratedQuestion{
			Question:      text,
			Options:       options,
			CorrectAnswer: options[idx],
			Hash:          g.hasher.Compute(text, options[idx]),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", ErrMalformedOutput)
	}
	return out, nil
}

// stripFences removes a surrounding markdown code block
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildPrompt(source model.SourceText, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d trivia questions with 4 multiple-choice answers each, based on the posts below.\n", count)
	b.WriteString("Questions should be about events, mentions and interests in the posts and be engaging for someone who follows the author.\n")
	b.WriteString("If the posts are thin, write plausible questions about the topics they mention.\n\n")
	fmt.Fprintf(&b, "Return only a JSON array of %d objects, without markdown code fences. Each object has:\n", count)
	b.WriteString(`- "question": the question text` + "\n")
	b.WriteString(`- "options": an array of 4 answer strings` + "\n")
	b.WriteString(`- "correct_answer": the index (0-3) of the correct option` + "\n\n")
	b.WriteString("Posts:\n")
	for _, t := range source.Tweets {
		if !t.CreatedAt.IsZero() {
			b.WriteString(t.CreatedAt.Format(time.RFC3339))
			b.WriteString(": ")
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
