package auth

import "time"

// Config drives authentication behavior. An empty Secret disables auth.
type Config struct {
	Secret          string
	Issuer          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
	Clients         []Client
}

// Client is an API consumer identified by a key whose bcrypt hash is configured.
type Client struct {
	ID      string `yaml:"id"`
	KeyHash string `yaml:"keyHash"`
}

// TokenRequest exchanges an API key for tokens.
type TokenRequest struct {
	APIKey string `json:"apiKey"`
	UserID string `json:"userId"`
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse returns the signed tokens.
type TokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	Subject   string
	ClientID  string
	TokenType string
	ExpiresAt time.Time
}

// Anonymous is the subject attached to requests when auth is disabled.
const Anonymous = "anonymous"
