package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"
)

// Reply types: 0 replies to a comment, 1 replies to another reply.
const (
	replyToComment = 0
	replyToReply   = 1
)

func (r *PostgresRepo) CommentReplies(ctx context.Context, commentID int64, pageNum, pageSize int) ([]models.Reply, error) {
	const op = "storage.postgres.CommentReplies"

	query := `
		SELECT reply.reply_id, reply.type, reply.content, reply.user_id, reply.object_id, reply.comment_id, reply.create_time,
			users.user_name, users.avatar
		FROM reply
		INNER JOIN users ON reply.user_id = users.user_id
		WHERE reply.deleted = 0 AND reply.comment_id = $1
		ORDER BY reply.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	rows, err := r.pool.Query(ctx, query, commentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var replies []models.Reply

	for rows.Next() {
		var rep models.Reply
		err := rows.Scan(
			&rep.ReplyID, &rep.Type, &rep.Content, &rep.UserID, &rep.ObjectID, &rep.CommentID, &rep.CreateTime,
			&rep.UserName, &rep.Avatar,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		replies = append(replies, rep)
	}

	return replies, rows.Err()
}

// CreateReplyToComment answers a comment directly; the reply anchors to the
// comment both as its object and as its thread root.
func (r *PostgresRepo) CreateReplyToComment(ctx context.Context, content string, userID, commentID int64) (int64, error) {
	return r.createReply(ctx, replyToComment, content, userID, commentID, commentID)
}

// CreateReplyToReply answers another reply; objectID is the reply being
// answered and commentID keeps the thread root for listing.
func (r *PostgresRepo) CreateReplyToReply(ctx context.Context, content string, userID, objectID, commentID int64) (int64, error) {
	return r.createReply(ctx, replyToReply, content, userID, objectID, commentID)
}

func (r *PostgresRepo) createReply(ctx context.Context, replyType int, content string, userID, objectID, commentID int64) (int64, error) {
	const op = "storage.postgres.createReply"

	query := `
		INSERT INTO reply (type, content, user_id, object_id, comment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING reply_id;
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, replyType, content, userID, objectID, commentID).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) DeleteReply(ctx context.Context, replyID int64) error {
	const op = "storage.postgres.DeleteReply"

	tag, err := r.pool.Exec(ctx, `UPDATE reply SET deleted = 1 WHERE reply_id = $1`, replyID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) IsMyReply(ctx context.Context, userID, commentID int64) (bool, error) {
	const op = "storage.postgres.IsMyReply"

	query := `SELECT EXISTS (SELECT 1 FROM reply WHERE user_id = $1 AND comment_id = $2 AND deleted = 0);`

	var mine bool
	if err := r.pool.QueryRow(ctx, query, userID, commentID).Scan(&mine); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return mine, nil
}

func (r *PostgresRepo) ReplyCount(ctx context.Context, commentID int64) (int64, error) {
	const op = "storage.postgres.ReplyCount"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reply WHERE type = $1 AND comment_id = $2 AND deleted = 0`,
		replyToComment, commentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

// ReplyUsers resolves who answered a given reply, for @-mention display.
func (r *PostgresRepo) ReplyUsers(ctx context.Context, replyID int64) ([]models.Identity, error) {
	const op = "storage.postgres.ReplyUsers"

	query := `
		SELECT u.user_id, u.user_name
		FROM reply r
		INNER JOIN users u ON r.user_id = u.user_id
		WHERE r.object_id = $1 AND r.type = $2 AND r.deleted = 0;
	`

	rows, err := r.pool.Query(ctx, query, replyID, replyToReply)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []models.Identity

	for rows.Next() {
		var u models.Identity
		if err := rows.Scan(&u.UserID, &u.UserName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}

	if len(users) == 0 {
		return nil, storage.ErrNotFound
	}

	return users, rows.Err()
}
