package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"notebook_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodeStore struct {
	codes  map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{
		codes: make(map[string]string),
		ttls:  make(map[string]time.Duration),
	}
}

func (f *fakeCodeStore) SetCode(_ context.Context, email, code string, ttl time.Duration) error {
	f.codes[email] = code
	f.ttls[email] = ttl
	return nil
}

func (f *fakeCodeStore) GetCode(_ context.Context, email string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	code, ok := f.codes[email]
	if !ok {
		return "", errors.New("code not found")
	}
	return code, nil
}

func (f *fakeCodeStore) CodeExists(_ context.Context, email string) (bool, error) {
	_, ok := f.codes[email]
	return ok, nil
}

type fakePublisher struct {
	sent []models.EmailMessage
	err  error
}

func (f *fakePublisher) SendMessage(_ context.Context, msg models.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestCodeStoresAndQueues(t *testing.T) {
	store := newFakeCodeStore()
	pub := &fakePublisher{}
	svc := New(discardLogger(), store, pub, 300*time.Second)

	require.NoError(t, svc.RequestCode(context.Background(), "a@example.com"))

	code, ok := store.codes["a@example.com"]
	require.True(t, ok)
	assert.Len(t, code, 6)
	assert.Equal(t, 300*time.Second, store.ttls["a@example.com"])

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "a@example.com", pub.sent[0].Email)
	assert.Equal(t, code, pub.sent[0].Code)
}

func TestRequestCodeRejectsWhilePending(t *testing.T) {
	store := newFakeCodeStore()
	pub := &fakePublisher{}
	svc := New(discardLogger(), store, pub, time.Minute)

	require.NoError(t, svc.RequestCode(context.Background(), "a@example.com"))

	err := svc.RequestCode(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrCodePending)
	assert.Len(t, pub.sent, 1)
}

func TestVerifyCodeMatch(t *testing.T) {
	store := newFakeCodeStore()
	store.codes["a@example.com"] = "AB12CD"
	svc := New(discardLogger(), store, &fakePublisher{}, time.Minute)

	assert.NoError(t, svc.VerifyCode(context.Background(), "a@example.com", "AB12CD"))
}

func TestVerifyCodeMismatch(t *testing.T) {
	store := newFakeCodeStore()
	store.codes["a@example.com"] = "AB12CD"
	svc := New(discardLogger(), store, &fakePublisher{}, time.Minute)

	err := svc.VerifyCode(context.Background(), "a@example.com", "ab12cd")
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestVerifyCodeMissingEntry(t *testing.T) {
	svc := New(discardLogger(), newFakeCodeStore(), &fakePublisher{}, time.Minute)

	err := svc.VerifyCode(context.Background(), "a@example.com", "AB12CD")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerifyCodeNotConsumed(t *testing.T) {
	store := newFakeCodeStore()
	store.codes["a@example.com"] = "AB12CD"
	svc := New(discardLogger(), store, &fakePublisher{}, time.Minute)

	require.NoError(t, svc.VerifyCode(context.Background(), "a@example.com", "AB12CD"))
	require.NoError(t, svc.VerifyCode(context.Background(), "a@example.com", "AB12CD"))

	_, ok := store.codes["a@example.com"]
	assert.True(t, ok)
}

func TestGenerateCodeAlphabet(t *testing.T) {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	for i := 0; i < 100; i++ {
		code := GenerateCode()
		require.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q", c)
		}
	}
}
