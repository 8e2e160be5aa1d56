package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Distinguishable handshake failures. The connection is never admitted when
// any of these is returned.
var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Identity is the resolved principal for one authenticated connection or
// request. It is immutable once attached.
type Identity struct {
	UserID int
}

// Claims is the JWT payload expected by this service.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator verifies bearer tokens against a shared HS256 secret.
type Authenticator struct {
	secret []byte
}

// New constructs an Authenticator.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate verifies a raw token string and resolves the identity.
func (a *Authenticator) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID}, nil
}

// Issue signs a token for a user. Used by tests and tooling.
func (a *Authenticator) Issue(userID int, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "messaging-service",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the "token" query parameter used by websocket clients.
// A present but non-bearer header is returned verbatim, never falling back
// to the query parameter: verification then classifies the credential as
// invalid rather than missing.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return header
	}
	return r.URL.Query().Get("token")
}
