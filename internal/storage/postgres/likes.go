package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/storage"
)

func (r *PostgresRepo) LikeCount(ctx context.Context, objectID int64, objectType int) (int64, error) {
	const op = "storage.postgres.LikeCount"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM likes WHERE type = $1 AND object_id = $2 AND deleted = 0`,
		objectType, objectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostgresRepo) IsLiked(ctx context.Context, userID, objectID int64, objectType int) (bool, error) {
	const op = "storage.postgres.IsLiked"

	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND object_id = $2 AND type = $3 AND deleted = 0);`

	var liked bool
	if err := r.pool.QueryRow(ctx, query, userID, objectID, objectType).Scan(&liked); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return liked, nil
}

// Like inserts unconditionally. The "already liked" check lives in the
// handler, so two concurrent submissions can both land; that window is
// accepted behavior, not closed by a constraint.
func (r *PostgresRepo) Like(ctx context.Context, userID, objectID int64, objectType int) error {
	const op = "storage.postgres.Like"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO likes (user_id, object_id, type) VALUES ($1, $2, $3)`,
		userID, objectID, objectType,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Unlike(ctx context.Context, userID, objectID int64, objectType int) error {
	const op = "storage.postgres.Unlike"

	tag, err := r.pool.Exec(ctx,
		`UPDATE likes SET deleted = 1 WHERE user_id = $1 AND object_id = $2 AND type = $3`,
		userID, objectID, objectType,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

// LikesReceived totals likes on a user's books and notes.
func (r *PostgresRepo) LikesReceived(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.LikesReceived"

	query := `
		SELECT COUNT(*) FROM (
			SELECT l.like_id
			FROM likes l
			JOIN book b ON l.object_id = b.book_id AND l.type = 0
			WHERE b.user_id = $1 AND l.deleted = 0
			UNION ALL
			SELECT l.like_id
			FROM likes l
			JOIN note n ON l.object_id = n.note_id AND l.type = 1
			WHERE n.user_id = $1 AND l.deleted = 0
		) AS combined;
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
