package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndIdentity(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("super-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := a.Issue("alice")
	require.NoError(t, err)

	id, err := a.Identity(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestIdentity_Expired(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("secret"), time.Minute)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := a.Issue("alice")
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Identity(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIdentity_NoExpiry(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("secret"), 0)
	require.NoError(t, err)

	tok, err := a.Issue("alice")
	require.NoError(t, err)

	id, err := a.Identity(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestIdentity_WrongSecret(t *testing.T) {
	t.Parallel()

	right, err := NewAuthority([]byte("right-secret"), time.Hour)
	require.NoError(t, err)
	wrong, err := NewAuthority([]byte("wrong-secret"), time.Hour)
	require.NoError(t, err)

	tok, err := right.Issue("alice")
	require.NoError(t, err)

	_, err = wrong.Identity(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentity_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("secret"), time.Hour)
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: "alice",
	}}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = a.Identity(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIdentity_Garbage(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("secret"), time.Hour)
	require.NoError(t, err)

	_, err = a.Identity("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_EmptyIdentity(t *testing.T) {
	t.Parallel()

	a, err := NewAuthority([]byte("secret"), time.Hour)
	require.NoError(t, err)

	_, err = a.Issue("")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestNewAuthority_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewAuthority(nil, time.Hour)
	assert.Error(t, err)
}
