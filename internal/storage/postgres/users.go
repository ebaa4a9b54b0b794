package postgres

import (
	"context"
	"errors"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (r *PostgresRepo) SaveUser(ctx context.Context, userName, email string, passHash []byte) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (user_name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING user_id;
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, userName, email, string(passHash)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UserByName(ctx context.Context, userName string) (models.User, error) {
	query := `
		SELECT user_id, user_name, nick_name, email, password_hash, avatar, info
		FROM users
		WHERE user_name = $1 AND deleted = 0;
	`

	row := r.pool.QueryRow(ctx, query, userName)

	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.UserName,
		&u.NickName,
		&u.Email,
		&u.PassHash,
		&u.Avatar,
		&u.Info,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

func (r *PostgresRepo) UserInfo(ctx context.Context, userID int64) (models.User, error) {
	query := `
		SELECT user_id, user_name, nick_name, email, avatar, info
		FROM users
		WHERE user_id = $1 AND deleted = 0;
	`

	row := r.pool.QueryRow(ctx, query, userID)

	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.UserName,
		&u.NickName,
		&u.Email,
		&u.Avatar,
		&u.Info,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, err
}

func (r *PostgresRepo) PublicUserByName(ctx context.Context, userName string) (models.PublicUser, error) {
	query := `
		SELECT user_id, user_name, nick_name, avatar, info
		FROM users
		WHERE user_name = $1 AND deleted = 0;
	`

	row := r.pool.QueryRow(ctx, query, userName)

	var u models.PublicUser
	err := row.Scan(&u.UserID, &u.UserName, &u.NickName, &u.Avatar, &u.Info)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PublicUser{}, storage.ErrUserNotFound
	}

	return u, err
}

func (r *PostgresRepo) UpdateUser(ctx context.Context, userID int64, userName, nickName, info, avatar string) error {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET user_name = $1, nick_name = $2, info = $3, avatar = $4
		WHERE user_id = $5;
	`

	tag, err := r.pool.Exec(ctx, query, userName, nickName, info, avatar, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) ListUsers(ctx context.Context, pageNum, pageSize int) ([]models.PublicUser, error) {
	const op = "storage.postgres.ListUsers"

	limit, offset := limitOffset(pageNum, pageSize)

	query := `
		SELECT user_id, user_name, nick_name, avatar, info
		FROM users
		WHERE deleted = 0
		ORDER BY user_id
		LIMIT $1 OFFSET $2;
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.PublicUser

	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.UserID, &u.UserName, &u.NickName, &u.Avatar, &u.Info); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UserTaken reports whether the user name and email pair is already
// registered, mirroring the duplicate check at registration.
func (r *PostgresRepo) UserTaken(ctx context.Context, userName, email string) (bool, error) {
	const op = "storage.postgres.UserTaken"

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE user_name = $1 AND email = $2);`

	var taken bool
	if err := r.pool.QueryRow(ctx, query, userName, email).Scan(&taken); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return taken, nil
}
