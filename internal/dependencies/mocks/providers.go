package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/model"
)

// OAuthProvider is a scriptable OAuth collaborator. Nil funcs fall back to
// returning fixed tokens that expire an hour after Now.
type OAuthProvider struct {
	mu sync.Mutex

	Now          func() time.Time
	Handle       string
	ExchangeFunc func(ctx context.Context, code, verifier string) (*model.OAuthToken, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (*model.OAuthToken, error)
	LookupErr    error

	refreshCalls  int
	exchangeCalls int
}

func (p *OAuthProvider) AuthCodeURL(state, verifier string) string {
	return fmt.Sprintf("https://auth.example.com/authorize?state=%s&verifier=%s", state, verifier)
}

func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier string) (*model.OAuthToken, error) {
	p.mu.Lock()
	p.exchangeCalls++
	p.mu.Unlock()
	if p.ExchangeFunc != nil {
		return p.ExchangeFunc(ctx, code, verifier)
	}
	return &model.OAuthToken{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       p.now().Add(time.Hour),
	}, nil
}

func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*model.OAuthToken, error) {
	p.mu.Lock()
	p.refreshCalls++
	n := p.refreshCalls
	p.mu.Unlock()
	if p.RefreshFunc != nil {
		return p.RefreshFunc(ctx, refreshToken)
	}
	return &model.OAuthToken{
		AccessToken:  fmt.Sprintf("refreshed-access-%d", n),
		RefreshToken: fmt.Sprintf("refreshed-refresh-%d", n),
		Expiry:       p.now().Add(time.Hour),
	}, nil
}

func (p *OAuthProvider) LookupHandle(ctx context.Context, accessToken string) (string, error) {
	if p.LookupErr != nil {
		return "", p.LookupErr
	}
	if p.Handle == "" {
		return "alice", nil
	}
	return p.Handle, nil
}

// RefreshCalls returns how many refresh exchanges were performed
func (p *OAuthProvider) RefreshCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

// ExchangeCalls returns how many code exchanges were performed
func (p *OAuthProvider) ExchangeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchangeCalls
}

func (p *OAuthProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// TimelineFetcher returns canned tweets or a canned error
type TimelineFetcher struct {
	Tweets []model.Tweet
	Err    error

	mu    sync.Mutex
	calls []string
}

func (f *TimelineFetcher) FetchTimeline(ctx context.Context, handle, accessToken string) ([]model.Tweet, error) {
	f.mu.Lock()
	f.calls = append(f.calls, handle)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Tweets, nil
}

// Calls returns the handles fetched so far
func (f *TimelineFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Generator returns canned questions, or builds Count valid ones when
// Questions is nil
type Generator struct {
	Questions []model.GeneratedQuestion
	Count     int
	Err       error

	mu   sync.Mutex
	seen []model.SourceText
}

func (g *Generator) Generate(ctx context.Context, source model.SourceText) ([]model.GeneratedQuestion, error) {
	g.mu.Lock()
	g.seen = append(g.seen, source)
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Questions != nil {
		return g.Questions, nil
	}
	return GeneratedQuestions(g.Count), nil
}

// Sources returns the source texts passed to Generate
func (g *Generator) Sources() []model.SourceText {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.SourceText(nil), g.seen...)
}

// GeneratedQuestions builds n distinct questions whose correct answer is
// always "A<i>" and whose hashes use the default fingerprint scheme
func GeneratedQuestions(n int) []model.GeneratedQuestion {
	h := fingerprint.Default()
	out := make([]model.GeneratedQuestion, n)
	for i := range out {
		q := fmt.Sprintf("Question %d?", i)
		a := fmt.Sprintf("A%d", i)
		out[i] = model.GeneratedQuestion{
			Question:      q,
			Options:       []string{a, fmt.Sprintf("B%d", i), fmt.Sprintf("C%d", i), fmt.Sprintf("D%d", i)},
			CorrectAnswer: a,
			Hash:          h.Compute(q, a),
		}
	}
	return out
}

// Pinner records pinned payloads
type Pinner struct {
	Address string
	Err     error

	mu     sync.Mutex
	pinned []string
}

func (p *Pinner) PinJSON(ctx context.Context, name string, payload any) (string, error) {
	p.mu.Lock()
	p.pinned = append(p.pinned, name)
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	if p.Address == "" {
		return "bafyfakecid", nil
	}
	return p.Address, nil
}

// Pinned returns the names pinned so far
func (p *Pinner) Pinned() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pinned...)
}

// MintCall records one Mint invocation
type MintCall struct {
	Wallet string
	Amount int64
}

// Minter records mints and returns a canned transaction hash
type Minter struct {
	TxHash string
	Err    error

	mu    sync.Mutex
	calls []MintCall
}

func (m *Minter) Mint(ctx context.Context, wallet string, amount int64) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MintCall{Wallet: wallet, Amount: amount})
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if m.TxHash == "" {
		return "0xfeed", nil
	}
	return m.TxHash, nil
}

// Calls returns the mints performed so far
func (m *Minter) Calls() []MintCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MintCall(nil), m.calls...)
}

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *Publisher) Publish(event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Events returns the published events
func (p *Publisher) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

// Types returns the published event types in order
func (p *Publisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}
