package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// malformed input, wrong algorithm, missing subject or elapsed expiry.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager mints and verifies stateless access tokens whose subject is
// the user's email.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager for the given HMAC algorithm name
// (HS256, HS384 or HS512).
func NewTokenManager(secret, algorithm, issuer string, ttl time.Duration) (*TokenManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	t.now = now
	return t
}

// TTL reports how long minted tokens stay valid.
func (t *TokenManager) TTL() time.Duration { return t.ttl }

// Generate issues a signed token for email.
func (t *TokenManager) Generate(email string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(t.method, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (t *TokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
