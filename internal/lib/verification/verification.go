package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/models"
)

var (
	ErrCodePending  = errors.New("verification code already sent")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

const (
	codeLength   = 6
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	mailSubject = "verification code"
)

type Publisher interface {
	SendMessage(ctx context.Context, msg models.EmailMessage) error
}

// CodeStore keeps one short-lived code per email address.
type CodeStore interface {
	SetCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	CodeExists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	log     *slog.Logger
	codes   CodeStore
	pub     Publisher
	codeTTL time.Duration
}

func New(log *slog.Logger, codes CodeStore, pub Publisher, codeTTL time.Duration) *Service {
	return &Service{
		log:     log,
		codes:   codes,
		pub:     pub,
		codeTTL: codeTTL,
	}
}

// RequestCode generates a code for the email, stores it with the configured
// TTL and queues the delivery email. While an unexpired code exists the
// request is rejected, which doubles as per-address rate limiting.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	const op = "verification.RequestCode"

	log := s.log.With(slog.String("op", op))

	exists, err := s.codes.CodeExists(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return ErrCodePending
	}

	code := GenerateCode()

	if err := s.codes.SetCode(ctx, email, code, s.codeTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.EmailMessage{
		Email:   email,
		Subject: mailSubject,
		Code:    code,
	}

	if err := s.pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to queue verification email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification code issued", slog.String("email", email))

	return nil
}

// VerifyCode compares the candidate against the stored code, case-sensitive.
// A correct code is not consumed; it stays valid until its TTL runs out.
func (s *Service) VerifyCode(ctx context.Context, email, candidate string) error {
	const op = "verification.VerifyCode"

	stored, err := s.codes.GetCode(ctx, email)
	if err != nil {
		// A miss means the entry is gone; the caller cannot tell a
		// never-issued code from an expired one.
		return ErrCodeExpired
	}

	if candidate != stored {
		return ErrCodeMismatch
	}

	return nil
}

// GenerateCode returns 6 characters drawn uniformly from [0-9A-Z].
func GenerateCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}

	return string(buf)
}
