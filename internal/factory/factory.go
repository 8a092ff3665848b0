package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/triviastake/internal/api/sse"
	"github.com/mcoot/triviastake/internal/config"
	"github.com/mcoot/triviastake/internal/dependencies/clock"
	"github.com/mcoot/triviastake/internal/dependencies/random"
	"github.com/mcoot/triviastake/internal/fingerprint"
	"github.com/mcoot/triviastake/internal/providers/chain"
	"github.com/mcoot/triviastake/internal/providers/oauth"
	"github.com/mcoot/triviastake/internal/providers/openai"
	"github.com/mcoot/triviastake/internal/providers/pinata"
	"github.com/mcoot/triviastake/internal/providers/twitter"
	"github.com/mcoot/triviastake/internal/services/admission"
	"github.com/mcoot/triviastake/internal/services/auth"
	"github.com/mcoot/triviastake/internal/services/ingestion"
	"github.com/mcoot/triviastake/internal/services/leaderboard"
	"github.com/mcoot/triviastake/internal/services/reward"
	"github.com/mcoot/triviastake/internal/services/scoring"
	"github.com/mcoot/triviastake/internal/services/source"
	"github.com/mcoot/triviastake/internal/storage"
	"github.com/mcoot/triviastake/internal/storage/memory"
	"github.com/mcoot/triviastake/internal/storage/postgres"
	redisstorage "github.com/mcoot/triviastake/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService         *auth.Service
	SourceService       *source.Service
	IngestionService    *ingestion.Service
	AdmissionController *admission.Controller
	LeaderboardService  *leaderboard.Service
	ScoringService      *scoring.Service
	RewardService       *reward.Service
	HubManager          *sse.HubManager
}

// Close releases the storage connection, if any, and disconnects every
// event stream
func (a *App) Close() error {
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Providers holds the external collaborators. Pinner and Minter are
// optional; the others are required.
type Providers struct {
	OAuth     auth.Provider
	Fetcher   source.Fetcher
	Generator ingestion.Generator
	Pinner    ingestion.Pinner
	Minter    reward.Minter
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
	// DBMaxOpenConns bounds the Postgres pool. Zero leaves the driver default.
	DBMaxOpenConns int

	Providers Providers
	// FallbackDir holds bundled timelines used when the live source fails
	FallbackDir string
	// Hasher computes answer fingerprints. If nil, sha256 is used.
	Hasher *fingerprint.Hasher

	AuthConfig      auth.Config
	IngestionConfig ingestion.Config
	ScoringConfig   scoring.Config
	RewardConfig    reward.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	if cfg.Providers.OAuth == nil || cfg.Providers.Fetcher == nil || cfg.Providers.Generator == nil {
		return nil, errors.New("OAuth, Fetcher and Generator providers are required")
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg, logger)

	if cfg.FallbackDir != "" {
		if err := app.SourceService.LoadFromDir(cfg.FallbackDir); err != nil {
			return nil, fmt.Errorf("load fallback timelines: %w", err)
		}
	}
	return app, nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StoragePostgres:
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMaxOpenConns > 0 {
			if err := pg.SetMaxOpenConns(cfg.DBMaxOpenConns); err != nil {
				return nil, err
			}
		}
		return pg, nil
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = fingerprint.Default()
	}
	if cfg.IngestionConfig.Stages > 0 && cfg.ScoringConfig.Stages == 0 {
		cfg.ScoringConfig.Stages = cfg.IngestionConfig.Stages
	}

	hubManager := sse.NewHubManager(logger)

	authService := auth.New(store, cfg.Providers.OAuth, clk, rnd, cfg.AuthConfig, logger)
	sourceService := source.New(cfg.Providers.Fetcher, rnd, logger)
	ingestionService := ingestion.New(store, authService, sourceService, cfg.Providers.Generator, cfg.Providers.Pinner,
		hasher, clk, rnd, cfg.IngestionConfig, logger)
	admissionController := admission.NewController(store, authService, clk, hubManager, logger)
	leaderboardService := leaderboard.New(store)
	scoringService := scoring.New(store, authService, leaderboardService, clk, rnd, hubManager, cfg.ScoringConfig, logger)
	rewardService := reward.New(store, authService, leaderboardService, cfg.Providers.Minter, clk, hubManager, cfg.RewardConfig, logger)

	return &App{
		Storage:             store,
		Clock:               clk,
		Random:              rnd,
		AuthService:         authService,
		SourceService:       sourceService,
		IngestionService:    ingestionService,
		AdmissionController: admissionController,
		LeaderboardService:  leaderboardService,
		ScoringService:      scoringService,
		RewardService:       rewardService,
		HubManager:          hubManager,
	}
}

// FromConfig builds the production providers from environment config and
// wires the application. Pinning is skipped without a Pinata JWT and
// minting is disabled without an RPC URL.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	hasher, err := fingerprint.New(fingerprint.Scheme(cfg.Game.FingerprintScheme))
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	providers := Providers{
		OAuth: oauth.New(oauth.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
			APIBase:      cfg.Twitter.APIBase,
		}, httpClient),
		Fetcher: twitter.New(twitter.Config{
			APIBase:    cfg.Twitter.APIBase,
			MaxResults: cfg.Twitter.MaxResults,
		}, httpClient, logger),
		Generator: openai.New(openai.Config{
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			BaseURL:   cfg.OpenAI.BaseURL,
			Questions: cfg.Game.Stages * cfg.Game.QuestionsPerStage,
		}, hasher, logger),
	}

	if cfg.Pinata.JWT != "" {
		providers.Pinner = pinata.New(pinata.Config{JWT: cfg.Pinata.JWT, APIBase: cfg.Pinata.APIBase}, httpClient)
	} else {
		logger.Warn("PINATA_JWT not set, questions will not be pinned")
	}

	if cfg.Chain.RPCURL != "" {
		minter, err := newMinter(ctx, cfg.Chain, logger)
		if err != nil {
			return nil, err
		}
		providers.Minter = minter
	} else {
		logger.Warn("CHAIN_RPC_URL not set, reward minting is disabled")
	}

	var redisCfg *redisstorage.Config
	if cfg.StorageType == config.StorageRedis {
		rc := redisstorage.DefaultConfig()
		rc.URL = cfg.RedisURL
		rc.OAuthStateTTL = cfg.OAuth.StateTTL
		redisCfg = &rc
	}

	return New(Config{
		Logger:         logger,
		StorageType:    cfg.StorageType,
		RedisConfig:    redisCfg,
		DatabaseURL:    cfg.DatabaseURL,
		DBMaxOpenConns: cfg.DBMaxOpenConns,
		Providers:      providers,
		FallbackDir:    cfg.Twitter.FallbackDir,
		Hasher:         hasher,
		AuthConfig:     auth.Config{StateTTL: cfg.OAuth.StateTTL},
		IngestionConfig: ingestion.Config{
			Stages:            cfg.Game.Stages,
			QuestionsPerStage: cfg.Game.QuestionsPerStage,
		},
		ScoringConfig: scoring.Config{
			Stages: cfg.Game.Stages,
			Policy: scoring.Policy(cfg.Game.SubmissionPolicy),
		},
		RewardConfig: reward.Config{
			TopN:          cfg.Game.TopN,
			MaxMintAmount: cfg.Game.MaxMintAmount,
		},
	})
}

func newMinter(ctx context.Context, cfg config.ChainConfig, logger *slog.Logger) (*chain.Minter, error) {
	minBalance, err := chain.ParseWei(cfg.MinBalanceWei)
	if err != nil {
		return nil, fmt.Errorf("CHAIN_MIN_BALANCE_WEI: %w", err)
	}
	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	return chain.New(client, chain.Config{
		Contract:      cfg.Contract,
		PrivateKey:    cfg.PrivateKey,
		MinBalanceWei: minBalance,
	}, logger)
}
