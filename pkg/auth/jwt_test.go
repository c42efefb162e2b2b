package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swasthgram/health-api/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access", RefreshSecret: "refresh", Expiry: time.Hour})
	u := &model.User{ID: "u1", Email: "anita@example.com", Role: model.RoleVillager}

	token, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "anita@example.com", claims.Email)
	assert.Equal(t, model.RoleVillager, claims.Role)
}

func TestRefreshTokenUsesSeparateSecret(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access", RefreshSecret: "refresh"})
	u := &model.User{ID: "u1"}

	refresh, err := svc.GenerateRefreshToken(u)
	require.NoError(t, err)

	// A refresh token is not a valid access token.
	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access", RefreshSecret: "refresh", Expiry: -time.Minute})
	u := &model.User{ID: "u1"}

	token, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := NewJWTService(Config{Secret: "access", RefreshSecret: "refresh"})
	other := NewJWTService(Config{Secret: "different", RefreshSecret: "refresh"})
	u := &model.User{ID: "u1"}

	token, err := other.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
