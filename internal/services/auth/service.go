package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/dependencies/random"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/storage"
)

const (
	stateLength    = 32
	verifierLength = 64
)

// Provider is the external OAuth collaborator
type Provider interface {
	// AuthCodeURL builds the consent URL for an S256 PKCE login
	AuthCodeURL(state, verifier string) string
	// Exchange trades an authorization code for tokens
	Exchange(ctx context.Context, code, verifier string) (*model.OAuthToken, error)
	// Refresh trades a refresh token for new tokens
	Refresh(ctx context.Context, refreshToken string) (*model.OAuthToken, error)
	// LookupHandle resolves the social handle owning an access token
	LookupHandle(ctx context.Context, accessToken string) (string, error)
}

// ServiceInterface defines the contract other services depend on
type ServiceInterface interface {
	EnsureValidToken(ctx context.Context, handle string) (string, error)
	RequireIdentity(ctx context.Context, handle string) (*model.Identity, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

// Config holds configuration for the auth service
type Config struct {
	StateTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		StateTTL: 10 * time.Minute,
	}
}

// LoginRequest is a started authorization flow
type LoginRequest struct {
	AuthURL string
	State   string
}

// Service owns identity credentials and their renewal
type Service struct {
	storage  storage.Storage
	provider Provider
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger

	refreshes singleflight.Group
}

// New creates a new auth Service
func New(storage storage.Storage, provider Provider, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.StateTTL == 0 {
		cfg.StateTTL = DefaultConfig().StateTTL
	}
	return &Service{
		storage:  storage,
		provider: provider,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		logger:   logger,
	}
}

// EnsureValidToken returns a usable access token for handle, refreshing it
// first if it has expired. Concurrent callers for the same handle share a
// single refresh exchange.
func (s *Service) EnsureValidToken(ctx context.Context, handle string) (string, error) {
	identity, err := s.RequireIdentity(ctx, handle)
	if err != nil {
		return "", err
	}
	if !identity.TokenExpired(s.clock.Now()) {
		return identity.AccessToken, nil
	}

	// The exchange is shared, so one caller going away must not fail the rest
	flightCtx := context.WithoutCancel(ctx)
	result, err, shared := s.refreshes.Do(handle, func() (any, error) {
		return s.refresh(flightCtx, handle)
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug("shared token refresh", slog.String("handle", handle))
	}
	return result.(string), nil
}

// refresh performs the exchange and persists the new credentials with a
// single upsert. The stored row is untouched when the exchange fails.
func (s *Service) refresh(ctx context.Context, handle string) (string, error) {
	identity, err := s.RequireIdentity(ctx, handle)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	// A caller that queued behind a finished refresh sees the fresh token
	if !identity.TokenExpired(now) {
		return identity.AccessToken, nil
	}

	token, err := s.provider.Refresh(ctx, identity.RefreshToken)
	if err != nil {
		s.logger.Warn("token refresh failed",
			slog.String("handle", handle),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %w", model.ErrExternalAuthFailure, err)
	}

	updated := *identity
	updated.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		updated.RefreshToken = token.RefreshToken
	}
	updated.TokenExpiresAt = token.Expiry
	updated.UpdatedAt = now

	if err := s.storage.UpsertIdentity(ctx, &updated); err != nil {
		return "", storage.WrapError(err)
	}

	s.logger.Info("token refreshed",
		slog.String("handle", handle),
		slog.Time("expires_at", token.Expiry))
	return updated.AccessToken, nil
}

// RequireIdentity returns the stored identity or ErrAuthenticationRequired
func (s *Service) RequireIdentity(ctx context.Context, handle string) (*model.Identity, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, model.ErrAuthenticationRequired
	}
	identity, err := s.storage.GetIdentity(ctx, handle)
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return nil, model.ErrAuthenticationRequired
		}
		return nil, storage.WrapError(err)
	}
	return identity, nil
}

// BeginLogin starts an authorization code flow and persists its state
func (s *Service) BeginLogin(ctx context.Context) (*LoginRequest, error) {
	state := &model.OAuthState{
		State:        s.random.Token(stateLength),
		CodeVerifier: s.random.Token(verifierLength),
		ExpiresAt:    s.clock.Now().Add(s.cfg.StateTTL),
	}
	if err := s.storage.SaveOAuthState(ctx, state); err != nil {
		return nil, storage.WrapError(err)
	}

	return &LoginRequest{
		AuthURL: s.provider.AuthCodeURL(state.State, state.CodeVerifier),
		State:   state.State,
	}, nil
}

// CompleteLogin redeems a callback. The state is consumed whether or not the
// exchange succeeds.
func (s *Service) CompleteLogin(ctx context.Context, state, code string) (*model.Identity, error) {
	if state == "" {
		return nil, model.ErrOAuthStateInvalid
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", model.ErrInvalidInput)
	}

	pending, err := s.storage.TakeOAuthState(ctx, state)
	if err != nil {
		return nil, storage.WrapError(err)
	}
	now := s.clock.Now()
	if pending.Expired(now) {
		return nil, model.ErrOAuthStateInvalid
	}

	token, err := s.provider.Exchange(ctx, code, pending.CodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrExternalAuthFailure, err)
	}
	handle, err := s.provider.LookupHandle(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrExternalAuthFailure, err)
	}

	identity := &model.Identity{
		Handle:         handle,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// Re-authentication keeps the linked wallet and original creation time
	existing, err := s.storage.GetIdentity(ctx, handle)
	switch {
	case err == nil:
		identity.WalletAddress = existing.WalletAddress
		identity.CreatedAt = existing.CreatedAt
	case !errors.Is(err, model.ErrIdentityNotFound):
		return nil, storage.WrapError(err)
	}

	if err := s.storage.UpsertIdentity(ctx, identity); err != nil {
		return nil, storage.WrapError(err)
	}

	s.logger.Info("identity authenticated", slog.String("handle", handle))
	return identity, nil
}

// LinkWallet attaches a payout address to an identity
func (s *Service) LinkWallet(ctx context.Context, handle, address string) (*model.Identity, error) {
	identity, err := s.RequireIdentity(ctx, handle)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: wallet address must be a 0x-prefixed 20-byte hex address", model.ErrInvalidInput)
	}

	identity.WalletAddress = common.HexToAddress(address).Hex()
	identity.UpdatedAt = s.clock.Now()
	if err := s.storage.UpsertIdentity(ctx, identity); err != nil {
		return nil, storage.WrapError(err)
	}

	s.logger.Info("wallet linked",
		slog.String("handle", handle),
		slog.String("wallet", identity.WalletAddress))
	return identity, nil
}
