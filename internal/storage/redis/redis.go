package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key formats shared with the original deployment; changing them would
// orphan live revocation and code entries.
const (
	blacklistKeyPrefix = "bl_"
	codeKeyPrefix      = "code:"

	revokedMarker = "revoked"
)

var ErrCodeNotFound = errors.New("verification code not found")

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// Revoke blacklists a raw token string for ttl. The caller derives ttl from
// the token's own expiry, so the entry dies with the token.
func (r *RedisRepo) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	const op = "storage.redis.Revoke"

	if ttl <= 0 {
		// Already past natural expiry, nothing to record.
		return nil
	}

	err := r.client.Set(ctx, blacklistKeyPrefix+token, revokedMarker, ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	const op = "storage.redis.IsRevoked"

	n, err := r.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// SetCode stores a verification code for the email with ttl. Overwrites any
// previous entry; the pending check belongs to the caller.
func (r *RedisRepo) SetCode(ctx context.Context, email, code string, ttl time.Duration) error {
	const op = "storage.redis.SetCode"

	err := r.client.Set(ctx, codeKeyPrefix+email, code, ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) GetCode(ctx context.Context, email string) (string, error) {
	const op = "storage.redis.GetCode"

	code, err := r.client.Get(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return code, nil
}

func (r *RedisRepo) CodeExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.redis.CodeExists"

	n, err := r.client.Exists(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
