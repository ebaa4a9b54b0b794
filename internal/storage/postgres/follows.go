package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"
)

// Follow rows read "follower_id follows user_id".

func (r *PostgresRepo) IsFollowing(ctx context.Context, followerID, userID int64) (bool, error) {
	const op = "storage.postgres.IsFollowing"

	query := `SELECT EXISTS (SELECT 1 FROM follow WHERE user_id = $1 AND follower_id = $2 AND deleted = 0);`

	var following bool
	if err := r.pool.QueryRow(ctx, query, userID, followerID).Scan(&following); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return following, nil
}

func (r *PostgresRepo) Follow(ctx context.Context, userID, followerID int64) error {
	const op = "storage.postgres.Follow"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO follow (user_id, follower_id) VALUES ($1, $2)`,
		userID, followerID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Unfollow(ctx context.Context, userID, followerID int64) error {
	const op = "storage.postgres.Unfollow"

	tag, err := r.pool.Exec(ctx,
		`UPDATE follow SET deleted = 1 WHERE user_id = $1 AND follower_id = $2`,
		userID, followerID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

// Following lists the users that userID follows.
func (r *PostgresRepo) Following(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.PublicUser, int64, error) {
	const op = "storage.postgres.Following"

	query := `
		SELECT user_id, user_name, nick_name, avatar, info, COUNT(*) OVER() AS total
		FROM users
		WHERE user_id IN (SELECT user_id FROM follow WHERE follower_id = $1 AND deleted = 0)
		LIMIT $2 OFFSET $3;
	`

	return r.scanFollowUsers(ctx, op, query, userID, pageNum, pageSize)
}

// Followers lists the users following userID.
func (r *PostgresRepo) Followers(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.PublicUser, int64, error) {
	const op = "storage.postgres.Followers"

	query := `
		SELECT user_id, user_name, nick_name, avatar, info, COUNT(*) OVER() AS total
		FROM users
		WHERE user_id IN (SELECT follower_id FROM follow WHERE user_id = $1 AND deleted = 0)
		LIMIT $2 OFFSET $3;
	`

	return r.scanFollowUsers(ctx, op, query, userID, pageNum, pageSize)
}

func (r *PostgresRepo) scanFollowUsers(ctx context.Context, op, query string, userID int64, pageNum, pageSize int) ([]models.PublicUser, int64, error) {
	limit, offset := limitOffset(pageNum, pageSize)

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		users []models.PublicUser
		total int64
	)

	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.UserID, &u.UserName, &u.NickName, &u.Avatar, &u.Info, &total); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}

	return users, total, rows.Err()
}
