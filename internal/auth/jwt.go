// Package auth issues and verifies the bearer tokens that carry a caller's
// identity on the HTTP surface.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token.
const Issuer = "diary"

var (
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for expired tokens.
	ErrTokenExpired = errors.New("token expired")

	// ErrNoSubject is returned for tokens without an identity.
	ErrNoSubject = errors.New("token has no subject")
)

// Claims are the token claims. The subject is the caller identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Authority signs and verifies tokens with an HMAC key.
type Authority struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewAuthority creates an Authority. A non-positive ttl issues tokens that
// never expire.
func NewAuthority(key []byte, ttl time.Duration) (*Authority, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Authority{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed HS256 token whose subject is identity.
func (a *Authority) Issue(identity string) (string, error) {
	if identity == "" {
		return "", ErrNoSubject
	}

	now := a.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  identity,
		IssuedAt: jwt.NewNumericDate(now),
	}}
	if a.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Identity verifies a token and returns its subject.
func (a *Authority) Identity(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return a.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", ErrTokenExpired
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}
