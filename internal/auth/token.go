// Package auth supplies bearer tokens to the HTTP client and media loader.
package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider returns the current bearer token, if one is available.
// Implementations must be safe for concurrent use.
type TokenProvider interface {
	Token() (string, bool)
}

// Static always returns the same token. An empty token means "no token".
type Static string

// Token implements TokenProvider.
func (s Static) Token() (string, bool) {
	token := strings.TrimSpace(string(s))
	return token, token != ""
}

// Env reads the token from an environment variable on every call.
type Env string

// Token implements TokenProvider.
func (e Env) Token() (string, bool) {
	token := strings.TrimSpace(os.Getenv(string(e)))
	return token, token != ""
}

// File reads a session token from disk on every call so that a token
// refreshed by another process is picked up without restarting.
// Tokens that parse as JWTs with an exp claim in the past are treated as absent.
type File struct {
	Path string
	Now  func() time.Time
}

// Token implements TokenProvider.
func (f File) Token() (string, bool) {
	if strings.TrimSpace(f.Path) == "" {
		return "", false
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", false
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	if expired(token, now()) {
		return "", false
	}
	return token, true
}

// Chain returns the first token any provider yields.
type Chain []TokenProvider

// Token implements TokenProvider.
func (c Chain) Token() (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if token, ok := p.Token(); ok {
			return token, true
		}
	}
	return "", false
}

// expired reports whether token is a JWT whose exp claim is before now.
// Opaque (non-JWT) tokens are never considered expired; the server decides.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}

// ErrNoToken is returned by helpers that require a token.
var ErrNoToken = errors.New("no session token available")

// Require returns the provider's token or ErrNoToken.
func Require(p TokenProvider) (string, error) {
	if p == nil {
		return "", ErrNoToken
	}
	token, ok := p.Token()
	if !ok {
		return "", ErrNoToken
	}
	return token, nil
}
