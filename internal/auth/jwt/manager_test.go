package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/pharmacy-backend/pkg/config"
	pkgerrors "github.com/pharmadesk/pharmacy-backend/pkg/errors"
)

func newTestManager(expiry time.Duration) *Manager {
	return NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: expiry,
		Issuer:       "pharmacy-backend",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.Generate(&UserInfo{ID: 42, Username: "apothecary", Role: "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := m.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "apothecary", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "pharmacy-backend", claims.Issuer)
}

func TestValidate_Expired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.Generate(&UserInfo{ID: 1, Username: "u", Role: "staff"})
	require.NoError(t, err)

	_, err = m.Validate(token.AccessToken)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrTokenExpired))
}

func TestValidate_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	token, err := m.Generate(&UserInfo{ID: 1, Username: "u", Role: "staff"})
	require.NoError(t, err)

	other := NewManager(&config.JWTConfig{
		Secret:       "different-secret",
		AccessExpiry: time.Hour,
		Issuer:       "pharmacy-backend",
	})

	_, err = other.Validate(token.AccessToken)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrTokenInvalid))
}

func TestValidate_Garbage(t *testing.T) {
	m := newTestManager(time.Hour)

	_, err := m.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrTokenInvalid))
}
