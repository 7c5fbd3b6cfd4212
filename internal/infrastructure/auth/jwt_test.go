package auth

import (
	"testing"
	"time"

	"github.com/ficore/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-unit-tests-only",
		AccessTokenExpiration: expiration,
		Issuer:                "ficore-backend",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)
	userID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		UserID:   userID,
		Username: "ada",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ada", claims.Username)
	assert.True(t, claims.IsAdmin())

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestJWTService_DefaultsToUserRole(t *testing.T) {
	svc := newTestService(time.Hour)

	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	svc := newTestService(time.Hour)
	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-value",
		AccessTokenExpiration: time.Hour,
		Issuer:                "ficore-backend",
	})

	token, _, err := svc.GenerateToken(GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := newTestService(time.Hour)

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
