package security

import (
	"Hydro/internal/api/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m, err := NewTokenManager(config.SecurityConfig{JWTSecret: "s3cret", TokenTTLHours: 1})
	require.NoError(t, err)

	token, err := m.GenerateToken(42, "ADMIN")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	other, err := NewTokenManager(config.SecurityConfig{JWTSecret: "different"})
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(config.SecurityConfig{})
	assert.Error(t, err)
}

func TestExtractSignature_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ExtractSignature("abc.def")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NoError(t, CheckPasswordHash("hunter22", hash))
	assert.ErrorIs(t, CheckPasswordHash("wrong", hash), ErrInvalidCredentials)

	_, err = HashPassword("")
	assert.Error(t, err)
}
