package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"notebook_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevocations struct {
	revoked  map[string]time.Duration
	isErr    error
	revErr   error
	answered bool
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]time.Duration)}
}

func (f *fakeRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if f.revErr != nil {
		return f.revErr
	}
	f.revoked[token] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	f.answered = true
	if f.isErr != nil {
		return false, f.isErr
	}
	_, ok := f.revoked[token]
	return ok, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIssueAndAuthenticate(t *testing.T) {
	store := newFakeRevocations()
	a := New(discardLogger(), store, "test-secret", 12*time.Hour)

	token, err := a.IssueToken(models.Identity{UserID: 42, UserName: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := a.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "alice", identity.UserName)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", time.Hour)

	cases := []string{"", "Bearer", "Bearer ", "Basic abc", "token-without-scheme"}
	for _, header := range cases {
		_, err := a.Authenticate(context.Background(), header)
		assert.ErrorIs(t, err, ErrMissingToken, "header %q", header)
	}
}

func TestAuthenticateTamperedToken(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", time.Hour)

	token, err := a.IssueToken(models.Identity{UserID: 1, UserName: "bob"})
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	_, err = a.Authenticate(context.Background(), "Bearer "+tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	issuer := New(discardLogger(), newFakeRevocations(), "secret-one", time.Hour)
	verifier := New(discardLogger(), newFakeRevocations(), "secret-two", time.Hour)

	token, err := issuer.IssueToken(models.Identity{UserID: 1, UserName: "bob"})
	require.NoError(t, err)

	_, err = verifier.Authenticate(context.Background(), "Bearer "+token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", -time.Minute)

	token, err := a.IssueToken(models.Identity{UserID: 1, UserName: "bob"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRevokedToken(t *testing.T) {
	store := newFakeRevocations()
	a := New(discardLogger(), store, "test-secret", time.Hour)

	token, err := a.IssueToken(models.Identity{UserID: 7, UserName: "carol"})
	require.NoError(t, err)

	require.NoError(t, a.Logout(context.Background(), "Bearer "+token))

	_, err = a.Authenticate(context.Background(), "Bearer "+token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthenticateFailsClosedOnStoreError(t *testing.T) {
	store := newFakeRevocations()
	store.isErr = errors.New("connection refused")
	a := New(discardLogger(), store, "test-secret", time.Hour)

	token, err := a.IssueToken(models.Identity{UserID: 7, UserName: "carol"})
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+token)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRevocationCheckedBeforeSignature(t *testing.T) {
	store := newFakeRevocations()
	store.isErr = errors.New("down")
	a := New(discardLogger(), store, "test-secret", time.Hour)

	_, err := a.Authenticate(context.Background(), "Bearer not-even-a-jwt")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, store.answered)
}

func TestLogoutTTLMatchesRemainingLifetime(t *testing.T) {
	store := newFakeRevocations()
	ttl := 12 * time.Hour
	a := New(discardLogger(), store, "test-secret", ttl)

	token, err := a.IssueToken(models.Identity{UserID: 9, UserName: "dave"})
	require.NoError(t, err)

	require.NoError(t, a.Logout(context.Background(), "Bearer "+token))

	stored, ok := store.revoked[token]
	require.True(t, ok)
	assert.InDelta(t, ttl.Seconds(), stored.Seconds(), 5)
}

func TestLogoutExpiredTokenClampsToZero(t *testing.T) {
	store := newFakeRevocations()

	// exp one second out, so parsing succeeds but almost nothing remains.
	claims := jwt.MapClaims{
		"user_id":   int64(3),
		"user_name": "eve",
		"iat":       time.Now().Add(-2 * time.Hour).Unix(),
		"exp":       time.Now().Add(time.Second).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	a := New(discardLogger(), store, "test-secret", time.Hour)

	require.NoError(t, a.Logout(context.Background(), "Bearer "+raw))

	stored, ok := store.revoked[raw]
	require.True(t, ok)
	assert.GreaterOrEqual(t, stored, time.Duration(0))
	assert.LessOrEqual(t, stored, time.Second)
}

func TestLogoutInvalidToken(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", time.Hour)

	err := a.Logout(context.Background(), "Bearer garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutMissingHeader(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", time.Hour)

	err := a.Logout(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestRejectsNonHMACAlgorithm(t *testing.T) {
	a := New(discardLogger(), newFakeRevocations(), "test-secret", time.Hour)

	// alg=none token with a valid-looking claim set.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id":   int64(1),
		"user_name": "mallory",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
