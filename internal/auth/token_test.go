package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func writeToken(t *testing.T, value string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(value), 0o600))
	return path
}

func TestStatic(t *testing.T) {
	token, ok := Static("  abc  ").Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = Static("   ").Token()
	assert.False(t, ok)
}

func TestEnv(t *testing.T) {
	t.Setenv("FIELDVIEW_TEST_TOKEN", "from-env")
	token, ok := Env("FIELDVIEW_TEST_TOKEN").Token()
	assert.True(t, ok)
	assert.Equal(t, "from-env", token)

	_, ok = Env("FIELDVIEW_TEST_TOKEN_UNSET").Token()
	assert.False(t, ok)
}

func TestFile_OpaqueTokenIsReturned(t *testing.T) {
	path := writeToken(t, "opaque-token\n")
	token, ok := File{Path: path}.Token()
	assert.True(t, ok)
	assert.Equal(t, "opaque-token", token)
}

func TestFile_MissingOrEmpty(t *testing.T) {
	_, ok := File{Path: filepath.Join(t.TempDir(), "missing")}.Token()
	assert.False(t, ok)

	_, ok = File{Path: writeToken(t, "  \n")}.Token()
	assert.False(t, ok)

	_, ok = File{}.Token()
	assert.False(t, ok)
}

func TestFile_ExpiredJWTIsAbsent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	live := signedToken(t, now.Add(time.Hour))
	token, ok := File{Path: writeToken(t, live), Now: func() time.Time { return now }}.Token()
	require.True(t, ok)
	assert.Equal(t, live, token)

	stale := signedToken(t, now.Add(-time.Minute))
	_, ok = File{Path: writeToken(t, stale), Now: func() time.Time { return now }}.Token()
	assert.False(t, ok)
}

func TestChain(t *testing.T) {
	c := Chain{nil, Static(""), Static("second")}
	token, ok := c.Token()
	assert.True(t, ok)
	assert.Equal(t, "second", token)

	_, ok = Chain{Static("")}.Token()
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	_, err := Require(nil)
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = Require(Static(""))
	assert.ErrorIs(t, err, ErrNoToken)

	token, err := Require(Static("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", token)
}
