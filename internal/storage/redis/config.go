package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// SessionTTL is how long session, question, participant and submission
	// keys outlive the session's end. Zero disables expiry.
	SessionTTL time.Duration
	// OAuthStateTTL is the redis-side expiry for pending OAuth states
	OAuthStateTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		SessionTTL:    30 * 24 * time.Hour,
		OAuthStateTTL: 10 * time.Minute,
	}
}
