package model

import "time"

// Identity is a social handle that has completed the OAuth flow
type Identity struct {
	Handle         string    `json:"handle"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TokenExpired reports whether the access token needs a refresh at now.
// A token is still valid at exactly its expiry instant.
func (i *Identity) TokenExpired(now time.Time) bool {
	return now.After(i.TokenExpiresAt)
}

// OAuthState is a pending authorization request awaiting its callback
type OAuthState struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the state can no longer be redeemed at now
func (s *OAuthState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// OAuthToken is the credential set issued by the OAuth provider
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
