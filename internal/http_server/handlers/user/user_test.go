package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notebook_service/internal/auth"
	"notebook_service/internal/lib/verification"
	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	users  map[string]models.User
	nextID int64
	taken  bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User), nextID: 1}
}

func (f *fakeUsers) UserByName(_ context.Context, userName string) (models.User, error) {
	u, ok := f.users[userName]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UserInfo(_ context.Context, userID int64) (models.User, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return models.User{}, storage.ErrUserNotFound
}

func (f *fakeUsers) PublicUserByName(_ context.Context, userName string) (models.PublicUser, error) {
	u, ok := f.users[userName]
	if !ok {
		return models.PublicUser{}, storage.ErrUserNotFound
	}
	return models.PublicUser{UserID: u.UserID, UserName: u.UserName}, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, _, _ int) ([]models.PublicUser, error) {
	var list []models.PublicUser
	for _, u := range f.users {
		list = append(list, models.PublicUser{UserID: u.UserID, UserName: u.UserName})
	}
	return list, nil
}

func (f *fakeUsers) SaveUser(_ context.Context, userName, email string, passHash []byte) (int64, error) {
	if _, ok := f.users[userName]; ok {
		return 0, storage.ErrUserExists
	}
	id := f.nextID
	f.nextID++
	f.users[userName] = models.User{UserID: id, UserName: userName, Email: email, PassHash: passHash}
	return id, nil
}

func (f *fakeUsers) UserTaken(_ context.Context, userName, email string) (bool, error) {
	return f.taken, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, userID int64, userName, nickName, info, avatar string) error {
	for name, u := range f.users {
		if u.UserID == userID {
			u.NickName = nickName
			u.Info = info
			u.Avatar = avatar
			f.users[name] = u
			return nil
		}
	}
	return storage.ErrNoChange
}

type fakeRevocations struct {
	revoked map[string]bool
}

func (f *fakeRevocations) Revoke(_ context.Context, token string, _ time.Duration) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

type fakeCodeStore struct {
	codes map[string]string
}

func (f *fakeCodeStore) SetCode(_ context.Context, email, code string, _ time.Duration) error {
	f.codes[email] = code
	return nil
}

func (f *fakeCodeStore) GetCode(_ context.Context, email string) (string, error) {
	code, ok := f.codes[email]
	if !ok {
		return "", storage.ErrNotFound
	}
	return code, nil
}

func (f *fakeCodeStore) CodeExists(_ context.Context, email string) (bool, error) {
	_, ok := f.codes[email]
	return ok, nil
}

type fakePublisher struct {
	sent []models.EmailMessage
}

func (f *fakePublisher) SendMessage(_ context.Context, msg models.EmailMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	h.ServeHTTP(rec, req)
	return rec
}

func seedUser(t *testing.T, users *fakeUsers, name, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	id, err := users.SaveUser(context.Background(), name, name+"@example.com", hash)
	require.NoError(t, err)

	return models.User{UserID: id, UserName: name, PassHash: hash}
}

func TestLoginSuccess(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "alice", "hunter2")

	tokens := auth.New(discardLogger(), &fakeRevocations{revoked: map[string]bool{}}, "test-secret", time.Hour)
	h := Login(discardLogger(), validator.New(), users, tokens)

	rec := postJSON(t, h, map[string]any{"user_name": "alice", "password": "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Code int `json:"code"`
		Data struct {
			Token     string `json:"token"`
			LoginUser struct {
				UserID   int64  `json:"user_id"`
				UserName string `json:"user_name"`
			} `json:"login_user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, env.Data.Token)
	assert.Equal(t, "alice", env.Data.LoginUser.UserName)

	// the minted token authenticates
	identity, err := tokens.Authenticate(context.Background(), "Bearer "+env.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.UserName)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUsers()
	seedUser(t, users, "alice", "hunter2")

	tokens := auth.New(discardLogger(), &fakeRevocations{revoked: map[string]bool{}}, "test-secret", time.Hour)
	h := Login(discardLogger(), validator.New(), users, tokens)

	rec := postJSON(t, h, map[string]any{"user_name": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	tokens := auth.New(discardLogger(), &fakeRevocations{revoked: map[string]bool{}}, "test-secret", time.Hour)
	h := Login(discardLogger(), validator.New(), newFakeUsers(), tokens)

	rec := postJSON(t, h, map[string]any{"user_name": "ghost", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendCodePendingReturns429(t *testing.T) {
	store := &fakeCodeStore{codes: map[string]string{"a@example.com": "AB12CD"}}
	codes := verification.New(discardLogger(), store, &fakePublisher{}, time.Minute)

	h := SendCode(discardLogger(), validator.New(), codes)

	rec := postJSON(t, h, map[string]any{"email": "a@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRegisterSuccess(t *testing.T) {
	store := &fakeCodeStore{codes: map[string]string{"bob@example.com": "AB12CD"}}
	codes := verification.New(discardLogger(), store, &fakePublisher{}, time.Minute)
	users := newFakeUsers()

	h := Register(discardLogger(), validator.New(), codes, users)

	rec := postJSON(t, h, map[string]any{
		"user_name": "bob",
		"email":     "bob@example.com",
		"code":      "AB12CD",
		"password":  "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	u, ok := users.users["bob"]
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword(u.PassHash, []byte("secret")))
}

func TestRegisterWrongCode(t *testing.T) {
	store := &fakeCodeStore{codes: map[string]string{"bob@example.com": "AB12CD"}}
	codes := verification.New(discardLogger(), store, &fakePublisher{}, time.Minute)

	h := Register(discardLogger(), validator.New(), codes, newFakeUsers())

	rec := postJSON(t, h, map[string]any{
		"user_name": "bob",
		"email":     "bob@example.com",
		"code":      "WRONG0",
		"password":  "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterExpiredCode(t *testing.T) {
	store := &fakeCodeStore{codes: map[string]string{}}
	codes := verification.New(discardLogger(), store, &fakePublisher{}, time.Minute)

	h := Register(discardLogger(), validator.New(), codes, newFakeUsers())

	rec := postJSON(t, h, map[string]any{
		"user_name": "bob",
		"email":     "bob@example.com",
		"code":      "AB12CD",
		"password":  "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterTakenName(t *testing.T) {
	store := &fakeCodeStore{codes: map[string]string{"bob@example.com": "AB12CD"}}
	codes := verification.New(discardLogger(), store, &fakePublisher{}, time.Minute)
	users := newFakeUsers()
	users.taken = true

	h := Register(discardLogger(), validator.New(), codes, users)

	rec := postJSON(t, h, map[string]any{
		"user_name": "bob",
		"email":     "bob@example.com",
		"code":      "AB12CD",
		"password":  "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]bool{}}
	tokens := auth.New(discardLogger(), revocations, "test-secret", time.Hour)

	token, err := tokens.IssueToken(models.Identity{UserID: 1, UserName: "alice"})
	require.NoError(t, err)

	h := Logout(discardLogger(), tokens)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, revocations.revoked[token])

	_, err = tokens.Authenticate(context.Background(), "Bearer "+token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestLogoutGarbageToken(t *testing.T) {
	tokens := auth.New(discardLogger(), &fakeRevocations{revoked: map[string]bool{}}, "test-secret", time.Hour)

	h := Logout(discardLogger(), tokens)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
