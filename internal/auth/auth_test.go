package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateRoundTrip(t *testing.T) {
	a := New("test-secret")

	token, err := a.Issue(42, time.Hour)
	require.NoError(t, err)

	identity, err := a.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, 42, identity.UserID)
}

func TestAuthenticateMissingToken(t *testing.T) {
	a := New("test-secret")

	_, err := a.Authenticate("")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthenticateGarbageToken(t *testing.T) {
	a := New("test-secret")

	_, err := a.Authenticate("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	issuer := New("secret-a")
	verifier := New("secret-b")

	token, err := issuer.Issue(1, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Authenticate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	a := New("test-secret")

	token, err := a.Issue(1, -time.Minute)
	require.NoError(t, err)

	_, err = a.Authenticate(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenFromRequestHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", TokenFromRequest(r))
}

func TestTokenFromRequestQueryFallback(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=xyz", nil)
	assert.Equal(t, "xyz", TokenFromRequest(r))
}

func TestTokenFromRequestMalformedHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=xyz", nil)
	r.Header.Set("Authorization", "Basic abc")
	// A malformed header never falls back to the query parameter; the raw
	// header comes back so verification rejects it as invalid.
	assert.Equal(t, "Basic abc", TokenFromRequest(r))
}

func TestMalformedHeaderAuthenticatesAsInvalid(t *testing.T) {
	a := New("test-secret")

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic abc")

	_, err := a.Authenticate(TokenFromRequest(r))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromRequestAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	assert.Equal(t, "", TokenFromRequest(r))
}
