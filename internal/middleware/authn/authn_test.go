package authn

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"notebook_service/internal/auth"
	"notebook_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	identity models.Identity
	err      error
	calls    int
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, _ string) (models.Identity, error) {
	f.calls++
	if f.err != nil {
		return models.Identity{}, f.err
	}
	return f.identity, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPolicySegmentBoundaries(t *testing.T) {
	p := NewPolicy()
	p.Register("/api/book", Public)

	assert.True(t, p.IsExempt("/api/book"))
	assert.True(t, p.IsExempt("/api/book/"))
	assert.True(t, p.IsExempt("/api/book/all"))
	assert.False(t, p.IsExempt("/api/bookshelf"))
	assert.False(t, p.IsExempt("/api/boo"))
	assert.False(t, p.IsExempt("/prefix/api/book"))
}

func TestPolicyIgnoresProtectedRegistrations(t *testing.T) {
	p := NewPolicy()
	p.Register("/api/user/login", Public)
	p.Register("/api/user/update", RequiresIdentity)

	assert.True(t, p.IsExempt("/api/user/login"))
	assert.False(t, p.IsExempt("/api/user/update"))
}

func TestGateExemptPathPassesWithoutCredentials(t *testing.T) {
	p := NewPolicy()
	p.Register("/api/user/login", Public)

	authn := &fakeAuthenticator{}

	var sawIdentity bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", nil)

	Gate(discardLogger(), p, authn)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawIdentity)
	assert.Zero(t, authn.calls)
}

func TestGateRejectsBeforeHandler(t *testing.T) {
	p := NewPolicy()
	authn := &fakeAuthenticator{err: auth.ErrMissingToken}

	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)

	Gate(discardLogger(), p, authn)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, handlerRan)

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Code)
	assert.Contains(t, body.Message, "missing access token")
}

func TestGateAttachesIdentity(t *testing.T) {
	p := NewPolicy()
	authn := &fakeAuthenticator{identity: models.Identity{UserID: 5, UserName: "alice"}}

	var got models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	Gate(discardLogger(), p, authn)(next).ServeHTTP(rec, req)

	assert.Equal(t, int64(5), got.UserID)
	assert.Equal(t, "alice", got.UserName)
}

func TestGateRevokedMessage(t *testing.T) {
	p := NewPolicy()
	authn := &fakeAuthenticator{err: auth.ErrTokenRevoked}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)

	Gate(discardLogger(), p, authn)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "login expired")
}

func TestRequireSkipsWhenIdentityPresent(t *testing.T) {
	authn := &fakeAuthenticator{}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)
	req = req.WithContext(context.WithValue(req.Context(), identityKey{}, models.Identity{UserID: 1}))

	Require(discardLogger(), authn)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, authn.calls)
}

func TestRequireAuthenticatesWhenGateSkipped(t *testing.T) {
	authn := &fakeAuthenticator{identity: models.Identity{UserID: 2, UserName: "bob"}}

	var got models.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	Require(discardLogger(), authn)(next).ServeHTTP(rec, req)

	assert.Equal(t, 1, authn.calls)
	assert.Equal(t, int64(2), got.UserID)
}

func TestRequireRejectsInvalidToken(t *testing.T) {
	authn := &fakeAuthenticator{err: auth.ErrInvalidToken}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/book/create", nil)
	req.Header.Set("Authorization", "Bearer bad")

	Require(discardLogger(), authn)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "invalid token")
}
