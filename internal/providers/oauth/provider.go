// Package oauth implements the social login collaborator on top of
// golang.org/x/oauth2 using the authorization code flow with PKCE.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
)

// Config holds OAuth client settings
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	// APIBase is where the profile lookup is sent
	APIBase string
}

// Ensure Provider implements auth.Provider
var _ auth.Provider = (*Provider)(nil)

// Provider talks to the social platform's OAuth endpoints
type Provider struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
}

// New creates a Provider. A nil httpClient means http.DefaultClient.
func New(cfg Config, httpClient *http.Client) *Provider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		httpClient: httpClient,
	}
}

func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*model.OAuthToken, error) {
	token, err := p.oauth.Exchange(p.withClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return toModel(token, ""), nil
}

// Refresh redeems a refresh token. Providers that do not rotate refresh
// tokens return the original one.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*model.OAuthToken, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	source := p.oauth.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return toModel(token, refreshToken), nil
}

// LookupHandle asks the platform who owns accessToken
func (p *Provider) LookupHandle(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/2/users/me", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup handle: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup handle: status %d", resp.StatusCode)
	}

	handle := gjson.GetBytes(body, "data.username").String()
	if handle == "" {
		return "", errors.New("lookup handle: response has no username")
	}
	return handle, nil
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func toModel(token *oauth2.Token, previousRefresh string) *model.OAuthToken {
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return &model.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: refresh,
		Expiry:       token.Expiry,
	}
}
