// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Submission policies
const (
	PolicyBestAttempt = "best_attempt"
	PolicySingle      = "single"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Config is the full server configuration
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageType    string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL       string `env:"REDIS_URL"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	OAuth   OAuthConfig
	Twitter TwitterConfig
	OpenAI  OpenAIConfig
	Pinata  PinataConfig
	Chain   ChainConfig
	Game    GameConfig
}

// OAuthConfig configures the social login provider
type OAuthConfig struct {
	ClientID     string        `env:"OAUTH_CLIENT_ID"`
	ClientSecret string        `env:"OAUTH_CLIENT_SECRET"`
	RedirectURL  string        `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8080/api/v1/auth/callback"`
	AuthURL      string        `env:"OAUTH_AUTH_URL" envDefault:"https://twitter.com/i/oauth2/authorize"`
	TokenURL     string        `env:"OAUTH_TOKEN_URL" envDefault:"https://api.twitter.com/2/oauth2/token"`
	Scopes       []string      `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"tweet.read,users.read,offline.access"`
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

// TwitterConfig configures the timeline source
type TwitterConfig struct {
	APIBase     string `env:"TWITTER_API_BASE" envDefault:"https://api.twitter.com"`
	MaxResults  int    `env:"TWITTER_MAX_RESULTS" envDefault:"100"`
	FallbackDir string `env:"FALLBACK_DIR" envDefault:"data/fallback"`
}

// OpenAIConfig configures the question generator
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string `env:"OPENAI_BASE_URL"`
}

// PinataConfig configures content pinning. Pinning is skipped without a JWT.
type PinataConfig struct {
	JWT     string `env:"PINATA_JWT"`
	APIBase string `env:"PINATA_API_BASE" envDefault:"https://api.pinata.cloud"`
}

// ChainConfig configures the reward minter. Minting is disabled without an
// RPC URL.
type ChainConfig struct {
	RPCURL        string `env:"CHAIN_RPC_URL"`
	Contract      string `env:"CHAIN_CONTRACT"`
	PrivateKey    string `env:"CHAIN_PRIVATE_KEY"`
	MinBalanceWei string `env:"CHAIN_MIN_BALANCE_WEI" envDefault:"1000000000000000"`
}

// GameConfig holds gameplay rules
type GameConfig struct {
	Stages            int    `env:"STAGES" envDefault:"3"`
	QuestionsPerStage int    `env:"QUESTIONS_PER_STAGE" envDefault:"5"`
	TopN              int    `env:"TOP_N" envDefault:"3"`
	MaxMintAmount     int64  `env:"MAX_MINT_AMOUNT" envDefault:"1000"`
	SubmissionPolicy  string `env:"SUBMISSION_POLICY" envDefault:"best_attempt"`
	FingerprintScheme string `env:"FINGERPRINT_SCHEME" envDefault:"sha256"`
}

// Load parses the environment into a Config and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express
func (c Config) Validate() error {
	var errs []error

	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q", c.StorageType))
	}

	switch c.Game.SubmissionPolicy {
	case PolicyBestAttempt, PolicySingle:
	default:
		errs = append(errs, fmt.Errorf("invalid SUBMISSION_POLICY %q", c.Game.SubmissionPolicy))
	}

	if c.Game.Stages <= 0 || c.Game.QuestionsPerStage <= 0 {
		errs = append(errs, errors.New("STAGES and QUESTIONS_PER_STAGE must be positive"))
	}
	if c.Game.TopN <= 0 {
		errs = append(errs, errors.New("TOP_N must be positive"))
	}
	if c.Game.MaxMintAmount <= 0 {
		errs = append(errs, errors.New("MAX_MINT_AMOUNT must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
