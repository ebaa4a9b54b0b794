package postgres

import (
	"context"
	"errors"
	"fmt"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const bookCounts = `
	(SELECT COUNT(*) FROM likes WHERE type = 0 AND object_id = book.book_id AND deleted = 0) AS like_count,
	(SELECT COUNT(*) FROM mark WHERE type = 0 AND object_id = book.book_id AND deleted = 0) AS mark_count,
	(SELECT COUNT(*) FROM comment WHERE type = 0 AND object_id = book.book_id AND deleted = 0) AS comment_count`

// AllBooks lists public notebooks, newest first.
func (r *PostgresRepo) AllBooks(ctx context.Context, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.AllBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			users.user_name, users.avatar,` + bookCounts + `,
			COUNT(*) OVER() AS total
		FROM book
		INNER JOIN users ON book.user_id = users.user_id
		WHERE book.deleted = 0 AND book.is_public = TRUE
		ORDER BY book.create_time DESC
		LIMIT $1 OFFSET $2;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	return r.scanBooksWithUser(ctx, op, query, limit, offset)
}

func (r *PostgresRepo) SearchBooks(ctx context.Context, keyword string, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.SearchBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			users.user_name, users.avatar,` + bookCounts + `,
			COUNT(*) OVER() AS total
		FROM book
		INNER JOIN users ON book.user_id = users.user_id
		WHERE book.deleted = 0 AND book.is_public = TRUE AND book.book_name ILIKE $1
		ORDER BY book.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	return r.scanBooksWithUser(ctx, op, query, "%"+keyword+"%", limit, offset)
}

func (r *PostgresRepo) UserBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.UserBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			users.user_name, users.avatar,` + bookCounts + `,
			COUNT(*) OVER() AS total
		FROM book
		INNER JOIN users ON book.user_id = users.user_id
		WHERE book.deleted = 0 AND book.user_id = $1
		ORDER BY book.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	return r.scanBooksWithUser(ctx, op, query, userID, limit, offset)
}

// MyBooks skips the user join: the owner already knows who they are.
func (r *PostgresRepo) MyBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.MyBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,` +
		bookCounts + `,
			COUNT(*) OVER() AS total
		FROM book
		WHERE book.deleted = 0 AND book.user_id = $1
		ORDER BY book.create_time DESC
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
			&b.LikeCount, &b.MarkCount, &b.CommentCount, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		books = append(books, b)
	}

	return books, total, rows.Err()
}

func (r *PostgresRepo) BookByID(ctx context.Context, bookID int64) (models.Book, error) {
	const op = "storage.postgres.BookByID"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			users.user_name, users.avatar,` + bookCounts + `
		FROM book
		INNER JOIN users ON book.user_id = users.user_id
		WHERE book.deleted = 0 AND book.book_id = $1;
	`

	var b models.Book
	err := r.pool.QueryRow(ctx, query, bookID).Scan(
		&b.BookID, &b.BookName, &b.UserID, &b.IsPublic, &b.Cover, &b.CreateTime,
		&b.UserName, &b.Avatar, &b.LikeCount, &b.MarkCount, &b.CommentCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Book{}, storage.ErrBookNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (r *PostgresRepo) CreateBook(ctx context.Context, bookName string, userID int64, isPublic bool, cover string) (int64, error) {
	const op = "storage.postgres.CreateBook"

	query := `
		INSERT INTO book (book_name, user_id, is_public, cover)
		VALUES ($1, $2, $3, $4)
		RETURNING book_id;
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, bookName, userID, isPublic, cover).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UpdateBook(ctx context.Context, bookID int64, bookName string, isPublic bool, cover string) error {
	const op = "storage.postgres.UpdateBook"

	query := `
		UPDATE book SET book_name = $1, is_public = $2, cover = $3
		WHERE book_id = $4 AND deleted = 0;
	`

	tag, err := r.pool.Exec(ctx, query, bookName, isPublic, cover, bookID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) DeleteBook(ctx context.Context, bookID int64) error {
	return r.setBookDeleted(ctx, bookID, 1)
}

func (r *PostgresRepo) RecoverBook(ctx context.Context, bookID int64) error {
	return r.setBookDeleted(ctx, bookID, 0)
}

func (r *PostgresRepo) setBookDeleted(ctx context.Context, bookID int64, deleted int) error {
	const op = "storage.postgres.setBookDeleted"

	tag, err := r.pool.Exec(ctx, `UPDATE book SET deleted = $1 WHERE book_id = $2`, deleted, bookID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) DeletedBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error) {
	const op = "storage.postgres.DeletedBooks"

	query := `
		SELECT book.book_id, book.book_name, book.user_id, book.is_public, book.cover, book.create_time,
			COUNT(*) OVER() AS total
		FROM book
		WHERE book.deleted = 1 AND book.user_id = $1
		ORDER BY book.create_time DESC
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
		err := rows.Scan(&b.BookID, &b.BookName, &b.UserID, &b.IsPublic, &b.Cover, &b.CreateTime, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		books = append(books, b)
	}

	return books, total, rows.Err()
}

func (r *PostgresRepo) BookCountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.BookCountByUser"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM book WHERE user_id = $1 AND deleted = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostgresRepo) scanBooksWithUser(ctx context.Context, op, query string, args ...any) ([]models.Book, int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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
			&b.UserName, &b.Avatar, &b.LikeCount, &b.MarkCount, &b.CommentCount, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		books = append(books, b)
	}

	return books, total, rows.Err()
}
