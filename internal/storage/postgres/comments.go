package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"
)

// Comments lists comments on a book or note, with the viewer's own like
// state resolved inline so the client needs no follow-up request.
func (r *PostgresRepo) Comments(ctx context.Context, objectID int64, objectType int, viewerID int64, pageNum, pageSize int) ([]models.Comment, int64, error) {
	const op = "storage.postgres.Comments"

	query := `
		SELECT comment.comment_id, comment.content, comment.user_id, comment.object_id, comment.type, comment.create_time,
			users.user_name, users.avatar,
			(SELECT COUNT(*) FROM likes WHERE type = 2 AND object_id = comment.comment_id AND deleted = 0) AS like_count,
			EXISTS (SELECT 1 FROM likes WHERE type = 2 AND object_id = comment.comment_id AND user_id = $1 AND deleted = 0) AS is_liked,
			COUNT(*) OVER() AS total
		FROM comment
		INNER JOIN users ON comment.user_id = users.user_id
		WHERE comment.deleted = 0 AND comment.type = $2 AND comment.object_id = $3
		ORDER BY comment.create_time DESC
		LIMIT $4 OFFSET $5;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	rows, err := r.pool.Query(ctx, query, viewerID, objectType, objectID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		comments []models.Comment
		total    int64
	)

	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.CommentID, &c.Content, &c.UserID, &c.ObjectID, &c.Type, &c.CreateTime,
			&c.UserName, &c.Avatar, &c.LikeCount, &c.IsLiked, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		comments = append(comments, c)
	}

	return comments, total, rows.Err()
}

func (r *PostgresRepo) CreateComment(ctx context.Context, content string, userID, objectID int64, objectType int) (int64, error) {
	const op = "storage.postgres.CreateComment"

	query := `
		INSERT INTO comment (content, user_id, object_id, type)
		VALUES ($1, $2, $3, $4)
		RETURNING comment_id;
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, content, userID, objectID, objectType).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, commentID int64) error {
	const op = "storage.postgres.DeleteComment"

	tag, err := r.pool.Exec(ctx, `UPDATE comment SET deleted = 1 WHERE comment_id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) IsMyComment(ctx context.Context, userID, commentID int64) (bool, error) {
	const op = "storage.postgres.IsMyComment"

	query := `SELECT EXISTS (SELECT 1 FROM comment WHERE user_id = $1 AND comment_id = $2 AND deleted = 0);`

	var mine bool
	if err := r.pool.QueryRow(ctx, query, userID, commentID).Scan(&mine); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return mine, nil
}

func (r *PostgresRepo) CommentCount(ctx context.Context, objectID int64, objectType int) (int64, error) {
	const op = "storage.postgres.CommentCount"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comment WHERE type = $1 AND object_id = $2 AND deleted = 0`,
		objectType, objectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
