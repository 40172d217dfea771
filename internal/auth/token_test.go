package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, now *time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("super-secret", "HS256", "fitplan-test", 30*time.Minute)
	require.NoError(t, err)
	return m.WithClock(func() time.Time { return *now })
}

func TestGenerateAndVerify(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	tok, err := m.Generate("a@example.com")
	require.NoError(t, err)

	sub, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sub)
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	tok, err := m.Generate("a@example.com")
	require.NoError(t, err)

	now = now.Add(29 * time.Minute)
	_, err = m.Verify(tok)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	other, err := NewTokenManager("other-secret", "HS256", "fitplan-test", time.Hour)
	require.NoError(t, err)
	tok, err := other.Generate("a@example.com")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithm(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	claims := jwt.RegisteredClaims{
		Subject:   "a@example.com",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "a@example.com"}).
		SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	now := time.Now()
	m := newManager(t, &now)

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestNewTokenManager_UnsupportedAlgorithm(t *testing.T) {
	_, err := NewTokenManager("k", "RS256", "x", time.Minute)
	require.Error(t, err)

	_, err = NewTokenManager("k", "none", "x", time.Minute)
	require.Error(t, err)
}
