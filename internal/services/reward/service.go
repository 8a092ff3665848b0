package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/model"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/services/leaderboard"
	"github.com/mcoot/triviastake/internal/storage"
)

// Minter issues reward tokens to a wallet and returns a transaction reference
type Minter interface {
	Mint(ctx context.Context, wallet string, amount int64) (string, error)
}

// Config holds reward settings
type Config struct {
	TopN          int
	MaxMintAmount int64
}

// DefaultConfig rewards the top three finishers
func DefaultConfig() Config {
	return Config{TopN: 3, MaxMintAmount: 1000}
}

// ServiceInterface is what the API layer depends on
type ServiceInterface interface {
	CheckEligible(ctx context.Context, gameID model.SessionID, handle string) (bool, error)
	Mint(ctx context.Context, gameID model.SessionID, handle string, amount int64) (*model.RewardClaim, error)
}

var _ ServiceInterface = (*Service)(nil)

// Service gates rewards on final standings
type Service struct {
	storage     storage.Storage
	auth        auth.ServiceInterface
	leaderboard leaderboard.ServiceInterface
	minter      Minter
	clock       clock.Clock
	events      model.Publisher
	cfg         Config
	logger      *slog.Logger
}

// New creates a reward Service. minter may be nil, in which case Mint
// always fails with ErrMintFailed.
func New(
	storage storage.Storage,
	auth auth.ServiceInterface,
	leaderboard leaderboard.ServiceInterface,
	minter Minter,
	clock clock.Clock,
	events model.Publisher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	if cfg.MaxMintAmount <= 0 {
		cfg.MaxMintAmount = DefaultConfig().MaxMintAmount
	}
	if events == nil {
		events = model.NopPublisher{}
	}
	return &Service{
		storage:     storage,
		auth:        auth,
		leaderboard: leaderboard,
		minter:      minter,
		clock:       clock,
		events:      events,
		cfg:         cfg,
		logger:      logger,
	}
}

// CheckEligible reports whether handle finished in the top N of an ended
// session
func (s *Service) CheckEligible(ctx context.Context, gameID model.SessionID, handle string) (bool, error) {
	session, err := s.storage.GetSession(ctx, gameID)
	if err != nil {
		return false, storage.WrapError(err)
	}
	if !session.IsEnded(s.clock.Now()) {
		return false, model.ErrSessionNotEnded
	}

	entries, err := s.leaderboard.Rank(ctx, gameID)
	if err != nil {
		return false, err
	}
	for _, entry := range leaderboard.Top(entries, s.cfg.TopN) {
		if entry.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

// Mint issues a reward to an eligible handle's linked wallet. A claim is
// taken before the minter is called so a reward is minted at most once;
// the claim is released if the mint fails.
func (s *Service) Mint(ctx context.Context, gameID model.SessionID, handle string, amount int64) (*model.RewardClaim, error) {
	identity, err := s.auth.RequireIdentity(ctx, handle)
	if err != nil {
		return nil, err
	}

	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", model.ErrInvalidInput)
	}
	if amount > s.cfg.MaxMintAmount {
		return nil, fmt.Errorf("%w: %d exceeds %d", model.ErrMintAmountOverCap, amount, s.cfg.MaxMintAmount)
	}

	eligible, err := s.CheckEligible(ctx, gameID, handle)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, model.ErrNotEligible
	}

	if identity.WalletAddress == "" {
		return nil, model.ErrWalletNotLinked
	}

	claim := &model.RewardClaim{
		GameID:    gameID,
		Handle:    handle,
		Amount:    amount,
		ClaimedAt: s.clock.Now(),
	}
	if err := s.storage.ClaimReward(ctx, claim); err != nil {
		return nil, storage.WrapError(err)
	}

	txRef, err := s.mint(ctx, identity.WalletAddress, amount)
	if err != nil {
		s.logger.Warn("mint failed",
			slog.String("game_id", string(gameID)),
			slog.String("handle", handle),
			slog.String("error", err.Error()))
		if releaseErr := s.storage.ReleaseRewardClaim(ctx, gameID, handle); releaseErr != nil {
			s.logger.Error("could not release reward claim",
				slog.String("game_id", string(gameID)),
				slog.String("handle", handle),
				slog.String("error", releaseErr.Error()))
		}
		return nil, err
	}

	if err := s.storage.CompleteRewardClaim(ctx, gameID, handle, txRef); err != nil {
		// The tokens were minted; keep the claim so it is never minted twice
		s.logger.Error("could not record mint transaction",
			slog.String("game_id", string(gameID)),
			slog.String("handle", handle),
			slog.String("tx_ref", txRef),
			slog.String("error", err.Error()))
		return nil, storage.WrapError(err)
	}
	claim.TxRef = txRef

	s.logger.Info("reward minted",
		slog.String("game_id", string(gameID)),
		slog.String("handle", handle),
		slog.Int64("amount", amount),
		slog.String("tx_ref", txRef))
	s.events.Publish(model.Event{
		Type:      model.EventRewardMinted,
		Timestamp: s.clock.Now(),
		GameID:    gameID,
		Handle:    handle,
		Payload:   model.RewardMintedPayload{Amount: amount, TxRef: txRef},
	})

	return claim, nil
}

func (s *Service) mint(ctx context.Context, wallet string, amount int64) (string, error) {
	if s.minter == nil {
		return "", fmt.Errorf("%w: minting is not configured", model.ErrMintFailed)
	}
	txRef, err := s.minter.Mint(ctx, wallet, amount)
	if err == nil {
		return txRef, nil
	}
	switch {
	case errors.Is(err, model.ErrMintingPaused),
		errors.Is(err, model.ErrMintAmountOverCap),
		errors.Is(err, model.ErrMintFailed):
		return "", err
	}
	return "", fmt.Errorf("%w: %w", model.ErrMintFailed, err)
}
