package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken     = errors.New("missing access token")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)

// RevocationStore records tokens invalidated before their natural expiry.
// An entry's TTL always equals the token's remaining lifetime at revocation
// time, so the store never remembers a token longer than the token lives.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Auth struct {
	log         *slog.Logger
	revocations RevocationStore
	secret      []byte
	tokenTTL    time.Duration
}

func New(log *slog.Logger, revocations RevocationStore, secret string, tokenTTL time.Duration) *Auth {
	return &Auth{
		log:         log,
		revocations: revocations,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
	}
}

// IssueToken mints an HS256 token binding the identity for tokenTTL.
func (a *Auth) IssueToken(identity models.Identity) (string, error) {
	const op = "auth.IssueToken"

	now := time.Now()

	claims := jwt.MapClaims{
		"user_id":   identity.UserID,
		"user_name": identity.UserName,
		"iat":       now.Unix(),
		"exp":       now.Add(a.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Authenticate validates the Authorization header and returns the identity
// bound to the token. Checks run in order: bearer extraction, revocation
// lookup, signature and expiry. A revoked token is rejected before its
// signature is even checked; a revocation store failure rejects too,
// never "assume not revoked".
func (a *Auth) Authenticate(ctx context.Context, authorization string) (models.Identity, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op))

	raw, ok := bearerToken(authorization)
	if !ok {
		return models.Identity{}, ErrMissingToken
	}

	revoked, err := a.revocations.IsRevoked(ctx, raw)
	if err != nil {
		log.Error("revocation lookup failed", sl.Err(err))
		return models.Identity{}, ErrStoreUnavailable
	}
	if revoked {
		return models.Identity{}, ErrTokenRevoked
	}

	identity, _, err := a.parseToken(raw)
	if err != nil {
		log.Warn("token rejected", sl.Err(err))
		return models.Identity{}, ErrInvalidToken
	}

	return identity, nil
}

// Logout revokes the presented token for exactly its remaining lifetime.
// An unverifiable token cannot be revoked and is reported invalid.
func (a *Auth) Logout(ctx context.Context, authorization string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	raw, ok := bearerToken(authorization)
	if !ok {
		return ErrMissingToken
	}

	identity, expiresAt, err := a.parseToken(raw)
	if err != nil {
		log.Warn("token rejected", sl.Err(err))
		return ErrInvalidToken
	}

	remaining := time.Until(expiresAt)
	if remaining < 0 {
		remaining = 0
	}

	if err := a.revocations.Revoke(ctx, raw, remaining); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out",
		slog.Int64("user_id", identity.UserID),
		slog.String("user_name", identity.UserName),
		slog.Duration("remaining", remaining),
	)

	return nil
}

func (a *Auth) parseToken(raw string) (models.Identity, time.Time, error) {
	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return models.Identity{}, time.Time{}, err
	}

	if !token.Valid {
		return models.Identity{}, time.Time{}, errors.New("invalid token")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return models.Identity{}, time.Time{}, errors.New("missing user_id claim")
	}

	userName, ok := claims["user_name"].(string)
	if !ok {
		return models.Identity{}, time.Time{}, errors.New("missing user_name claim")
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return models.Identity{}, time.Time{}, errors.New("missing exp claim")
	}

	return models.Identity{
		UserID:   int64(userID),
		UserName: userName,
	}, time.Unix(int64(expFloat), 0), nil
}

func bearerToken(authorization string) (string, bool) {
	const prefix = "Bearer "

	if !strings.HasPrefix(authorization, prefix) {
		return "", false
	}

	token := strings.TrimSpace(authorization[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
