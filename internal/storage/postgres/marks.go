package postgres

import (
	"context"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"
)

func (r *PostgresRepo) MarkCount(ctx context.Context, objectID int64, objectType int) (int64, error) {
	const op = "storage.postgres.MarkCount"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mark WHERE type = $1 AND object_id = $2 AND deleted = 0`,
		objectType, objectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostgresRepo) IsMarked(ctx context.Context, userID, objectID int64, objectType int) (bool, error) {
	const op = "storage.postgres.IsMarked"

	query := `SELECT EXISTS (SELECT 1 FROM mark WHERE user_id = $1 AND object_id = $2 AND type = $3 AND deleted = 0);`

	var marked bool
	if err := r.pool.QueryRow(ctx, query, userID, objectID, objectType).Scan(&marked); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return marked, nil
}

// Mark inserts unconditionally, like Like: the duplicate check is the
// handler's and is not atomic with the insert.
func (r *PostgresRepo) Mark(ctx context.Context, userID, objectID int64, objectType int) error {
	const op = "storage.postgres.Mark"

	_, err := r.pool.Exec(ctx,
		`INSERT INTO mark (user_id, object_id, type) VALUES ($1, $2, $3)`,
		userID, objectID, objectType,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Unmark(ctx context.Context, userID, objectID int64, objectType int) error {
	const op = "storage.postgres.Unmark"

	tag, err := r.pool.Exec(ctx,
		`UPDATE mark SET deleted = 1 WHERE user_id = $1 AND object_id = $2 AND type = $3`,
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

// FavoriteBooks lists the public notebooks a user has marked, most
// recently marked first.
func (r *PostgresRepo) FavoriteBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.FavoriteBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			users.user_name, users.avatar,
			COUNT(*) OVER() AS total
		FROM book
		INNER JOIN users ON book.user_id = users.user_id
		INNER JOIN mark ON book.book_id = mark.object_id
		WHERE mark.user_id = $1 AND mark.deleted = 0 AND mark.type = 0
			AND book.deleted = 0 AND book.is_public = TRUE
		ORDER BY mark.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		books []models.Book
		total int64
	)

	for rows.Next() {
		var b models.Book
		err := rows.Scan(
			&b.BookID, &b.BookName, &b.UserID, &b.IsPublic, &b.Cover, &b.CreateTime,
			&b.UserName, &b.Avatar, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		books = append(books, b)
	}

	return books, total, rows.Err()
}

func (r *PostgresRepo) FavoriteNotes(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Note, int64, error) {
	const op = "storage.postgres.FavoriteNotes"

	query := `
		SELECT note.note_id, note.note_name, note.user_id, note.book_id, note.tags, note.content, note.create_time,
			users.user_name, users.avatar,
			COUNT(*) OVER() AS total
		FROM note
		INNER JOIN users ON note.user_id = users.user_id
		INNER JOIN mark ON note.note_id = mark.object_id
		WHERE mark.user_id = $1 AND mark.deleted = 0 AND mark.type = 1 AND note.deleted = 0
		ORDER BY mark.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var (
		notes []models.Note
		total int64
	)

	for rows.Next() {
		var n models.Note
		err := rows.Scan(
			&n.NoteID, &n.NoteName, &n.UserID, &n.BookID, &n.Tags, &n.Content, &n.CreateTime,
			&n.UserName, &n.Avatar, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}

	return notes, total, rows.Err()
}
