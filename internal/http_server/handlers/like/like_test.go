package like

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeKey struct {
	userID, objectID int64
	objectType       int
}

type fakeLikeStorage struct {
	likes map[likeKey]bool
}

func newFakeLikeStorage() *fakeLikeStorage {
	return &fakeLikeStorage{likes: make(map[likeKey]bool)}
}

func (f *fakeLikeStorage) LikeCount(_ context.Context, objectID int64, objectType int) (int64, error) {
	var n int64
	for k := range f.likes {
		if k.objectID == objectID && k.objectType == objectType {
			n++
		}
	}
	return n, nil
}

func (f *fakeLikeStorage) IsLiked(_ context.Context, userID, objectID int64, objectType int) (bool, error) {
	return f.likes[likeKey{userID, objectID, objectType}], nil
}

func (f *fakeLikeStorage) Like(_ context.Context, userID, objectID int64, objectType int) error {
	f.likes[likeKey{userID, objectID, objectType}] = true
	return nil
}

func (f *fakeLikeStorage) Unlike(_ context.Context, userID, objectID int64, objectType int) error {
	k := likeKey{userID, objectID, objectType}
	if !f.likes[k] {
		return storage.ErrNoChange
	}
	delete(f.likes, k)
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

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()

	var env struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Code, env.Message
}

func TestLikeThenDuplicate(t *testing.T) {
	store := newFakeLikeStorage()
	h := Like(discardLogger(), validator.New(), store, models.TypeBook)

	rec := postJSON(t, h, map[string]any{"user_id": 1, "object_id": 10})
	code, _ := decodeEnvelope(t, rec)
	assert.Equal(t, 0, code)

	rec = postJSON(t, h, map[string]any{"user_id": 1, "object_id": 10})
	code, msg := decodeEnvelope(t, rec)
	assert.Equal(t, 1, code)
	assert.Contains(t, msg, "already liked")
}

func TestLikeTypesAreIndependent(t *testing.T) {
	store := newFakeLikeStorage()
	bookLike := Like(discardLogger(), validator.New(), store, models.TypeBook)
	noteLike := Like(discardLogger(), validator.New(), store, models.TypeNote)

	rec := postJSON(t, bookLike, map[string]any{"user_id": 1, "object_id": 10})
	code, _ := decodeEnvelope(t, rec)
	assert.Equal(t, 0, code)

	// the same ids under a different object type are a fresh like
	rec = postJSON(t, noteLike, map[string]any{"user_id": 1, "object_id": 10})
	code, _ = decodeEnvelope(t, rec)
	assert.Equal(t, 0, code)
}

func TestUnlikeWithoutLike(t *testing.T) {
	store := newFakeLikeStorage()
	h := Unlike(discardLogger(), validator.New(), store, models.TypeBook)

	rec := postJSON(t, h, map[string]any{"user_id": 1, "object_id": 10})
	code, msg := decodeEnvelope(t, rec)
	assert.Equal(t, 1, code)
	assert.Contains(t, msg, "not liked yet")
}

func TestCount(t *testing.T) {
	store := newFakeLikeStorage()
	require.NoError(t, store.Like(context.Background(), 1, 10, models.TypeBook))
	require.NoError(t, store.Like(context.Background(), 2, 10, models.TypeBook))
	require.NoError(t, store.Like(context.Background(), 3, 99, models.TypeBook))

	h := Count(discardLogger(), validator.New(), store, models.TypeBook)

	rec := postJSON(t, h, map[string]any{"object_id": 10})

	var env struct {
		Code int   `json:"code"`
		Data int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, int64(2), env.Data)
}

func TestLikeRejectsMissingFields(t *testing.T) {
	h := Like(discardLogger(), validator.New(), newFakeLikeStorage(), models.TypeBook)

	rec := postJSON(t, h, map[string]any{"object_id": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	code, _ := decodeEnvelope(t, rec)
	assert.Equal(t, 1, code)
}
