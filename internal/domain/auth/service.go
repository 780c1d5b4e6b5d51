package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Enabled() bool
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "auth.service"),
	}
}

// HashKey returns the bcrypt hash to configure for a client key.
func HashKey(key string) (string, error) {
	if len(key) < 16 {
		return "", fmt.Errorf("api key must be at least 16 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *service) Enabled() bool {
	return strings.TrimSpace(s.cfg.Secret) != ""
}

func (s *service) IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	if !s.Enabled() {
		return TokenResponse{}, apperrors.Wrap("auth_disabled", "authentication is disabled", nil)
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return TokenResponse{}, apperrors.Wrap("invalid_input", "apiKey cannot be empty", nil)
	}
	client, err := s.matchClient(key)
	if err != nil {
		s.logger.Warn("token request rejected", "error", err)
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid api key", err)
	}
	subject := strings.TrimSpace(req.UserID)
	if subject == "" {
		subject = client.ID
	}
	return s.buildTokenResponse(subject, client.ID)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	if !s.Enabled() {
		return TokenResponse{}, apperrors.Wrap("auth_disabled", "authentication is disabled", nil)
	}
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return TokenResponse{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	if _, ok := s.clientByID(claims.ClientID); !ok {
		return TokenResponse{}, apperrors.Wrap("invalid_token", "client no longer configured", nil)
	}
	return s.buildTokenResponse(claims.Subject, claims.ClientID)
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if !s.Enabled() {
		return Claims{Subject: Anonymous, TokenType: tokenTypeAccess}, nil
	}
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) matchClient(key string) (Client, error) {
	for _, client := range s.cfg.Clients {
		if bcrypt.CompareHashAndPassword([]byte(client.KeyHash), []byte(key)) == nil {
			return client, nil
		}
	}
	return Client{}, ErrInvalidKey
}

func (s *service) clientByID(id string) (Client, bool) {
	for _, client := range s.cfg.Clients {
		if client.ID == id {
			return client, true
		}
	}
	return Client{}, false
}

func (s *service) buildTokenResponse(subject, clientID string) (TokenResponse, error) {
	access, expiresAt, err := s.generateToken(subject, clientID, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, _, err := s.generateToken(subject, clientID, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *service) generateToken(subject, clientID, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		ClientID:  clientID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return Claims{}, apperrors.Wrap("invalid_token", "token issuer mismatch", nil)
	}
	return Claims{
		Subject:   claims.Subject,
		ClientID:  claims.ClientID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	ClientID  string `json:"client"`
	TokenType string `json:"type"`
}
