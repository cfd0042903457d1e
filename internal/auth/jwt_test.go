package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kama-line/service-reservation/internal/auth"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("42", auth.RoleAdmin)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestJWTManager_WrongSecretRejected(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)
	other := auth.NewJWTManager("other-secret", time.Hour)

	token, err := m.Generate("42", auth.RoleCustomer)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_ExpiredTokenRejected(t *testing.T) {
	m := auth.NewJWTManager("test-secret", -time.Minute)

	token, err := m.Generate("42", auth.RoleCustomer)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTManager_GarbageRejected(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
