package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-file-organizer/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewAuthService_RejectsWeakSettings(t *testing.T) {
	_, err := NewAuthService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewAuthService(testSecret, 0)
	assert.Error(t, err)
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc, err := NewAuthService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueToken("  ops-team ")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops-team", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.NotEmpty(t, claims.TokenID)

	_, err = svc.IssueToken(" ")
	assert.Error(t, err)
}

func TestAuthService_ValidateFailures(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewAuthService(testSecret, time.Minute)
	require.NoError(t, err)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.IssueToken("ops")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return issuedAt.Add(time.Hour) }
		t.Cleanup(func() { svc.now = func() time.Time { return issuedAt } })

		_, err := svc.ValidateToken(token.AccessToken)
		assert.True(t, errors.Is(err, model.ErrTokenExpired))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewAuthService("fedcba9876543210fedcba9876543210", time.Minute)
		require.NoError(t, err)
		other.now = svc.now

		_, err = other.ValidateToken(token.AccessToken)
		assert.True(t, errors.Is(err, model.ErrUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.True(t, errors.Is(err, model.ErrUnauthorized))
	})
}
