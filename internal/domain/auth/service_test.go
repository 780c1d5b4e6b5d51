package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

const testKey = "k3y-for-the-mobile-app"

func newTestService(t *testing.T) Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(Config{
		Secret:          "test-secret",
		Issuer:          "astro-api",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Clients:         []Client{{ID: "mobile", KeyHash: string(hash)}},
	}, newTestLogger())
}

func TestService_IssueValidateAndRefresh(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.IssueToken(context.Background(), TokenRequest{APIKey: testKey, UserID: "user-42"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.Subject)
	require.Equal(t, "mobile", claims.ClientID)
	require.WithinDuration(t, resp.ExpiresAt, claims.ExpiresAt, time.Second)

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, refreshed.Token)

	claims, err = svc.ValidateToken(context.Background(), refreshed.Token)
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.Subject)
}

func TestService_SubjectDefaultsToClient(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.IssueToken(context.Background(), TokenRequest{APIKey: testKey})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, "mobile", claims.Subject)
}

func TestService_RejectsBadKeyAndTokenMisuse(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.IssueToken(context.Background(), TokenRequest{APIKey: "wrong-key-wrong-key"})
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))

	_, err = svc.IssueToken(context.Background(), TokenRequest{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	resp, err := svc.IssueToken(context.Background(), TokenRequest{APIKey: testKey})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.Refresh(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.ValidateToken(context.Background(), "not-a-jwt")
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_RejectsForeignSecret(t *testing.T) {
	svc := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
	require.NoError(t, err)
	other := NewService(Config{
		Secret:   "other-secret",
		Issuer:   "astro-api",
		TokenTTL: time.Hour,
		Clients:  []Client{{ID: "mobile", KeyHash: string(hash)}},
	}, newTestLogger())
	resp, err := other.IssueToken(context.Background(), TokenRequest{APIKey: testKey})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_DisabledAllowsAnonymous(t *testing.T) {
	svc := NewService(Config{}, newTestLogger())
	require.False(t, svc.Enabled())

	claims, err := svc.ValidateToken(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, Anonymous, claims.Subject)

	_, err = svc.IssueToken(context.Background(), TokenRequest{APIKey: testKey})
	require.True(t, apperrors.IsCode(err, "auth_disabled"))
}

func TestHashKey(t *testing.T) {
	_, err := HashKey("short")
	require.Error(t, err)

	hash, err := HashKey(testKey)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(testKey)))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
