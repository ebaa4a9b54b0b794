package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const noteCounts = `
	(SELECT COUNT(*) FROM likes WHERE type = 1 AND object_id = note.note_id AND deleted = 0) AS like_count,
	(SELECT COUNT(*) FROM mark WHERE type = 1 AND object_id = note.note_id AND deleted = 0) AS mark_count,
	(SELECT COUNT(*) FROM comment WHERE type = 1 AND object_id = note.note_id AND deleted = 0) AS comment_count`

const noteJoinedSelect = `
	SELECT note.note_id, note.note_name, note.user_id, note.book_id, note.tags, note.content, note.create_time,
		users.user_name, users.avatar, book.book_name,` + noteCounts + `,
		COUNT(*) OVER() AS total
	FROM note
	JOIN users ON note.user_id = users.user_id
	JOIN book ON note.book_id = book.book_id`

// AllNotes lists notes from public notebooks, newest first.
func (r *PostgresRepo) AllNotes(ctx context.Context, pageNum, pageSize int) ([]models.Note, int64, error) {
	const op = "storage.postgres.AllNotes"

	query := noteJoinedSelect + `
		WHERE note.deleted = 0 AND book.is_public = TRUE
		ORDER BY note.create_time DESC
		LIMIT $1 OFFSET $2;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	return r.scanJoinedNotes(ctx, op, query, limit, offset)
}

// SearchNotes combines an optional keyword (name or content), an optional
// notebook name filter and optional tag containment, all ANDed together.
func (r *PostgresRepo) SearchNotes(ctx context.Context, keyword, bookName string, tags []string, pageNum, pageSize int) ([]models.Note, int64, error) {
	const op = "storage.postgres.SearchNotes"

	where := []string{"note.deleted = 0", "book.is_public = TRUE"}
	args := []any{}

	if kw := strings.TrimSpace(keyword); kw != "" {
		args = append(args, "%"+kw+"%")
		where = append(where, fmt.Sprintf("(note.note_name ILIKE $%d OR note.content ILIKE $%d)", len(args), len(args)))
	}

	if bn := strings.TrimSpace(bookName); bn != "" {
		args = append(args, "%"+bn+"%")
		where = append(where, fmt.Sprintf("book.book_name ILIKE $%d", len(args)))
	}

	var validTags []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			validTags = append(validTags, t)
		}
	}
	if len(validTags) > 0 {
		encoded, err := json.Marshal(validTags)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		args = append(args, string(encoded))
		where = append(where, fmt.Sprintf("note.tags @> $%d::jsonb", len(args)))
	}

	query := noteJoinedSelect + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY note.create_time DESC
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2) + `;`

	limit, offset := limitOffset(pageNum, pageSize)
	args = append(args, limit, offset)

	return r.scanJoinedNotes(ctx, op, query, args...)
}

func (r *PostgresRepo) BookNotes(ctx context.Context, bookID int64, pageNum, pageSize int) ([]models.Note, int64, error) {
	const op = "storage.postgres.BookNotes"

	query := noteJoinedSelect + `
		WHERE note.deleted = 0 AND note.book_id = $1
		ORDER BY note.create_time DESC
		LIMIT $2 OFFSET $3;
	`

	limit, offset := limitOffset(pageNum, pageSize)

	return r.scanJoinedNotes(ctx, op, query, bookID, limit, offset)
}

func (r *PostgresRepo) NoteByID(ctx context.Context, noteID int64) (models.Note, error) {
	const op = "storage.postgres.NoteByID"

	query := `
		SELECT note.note_id, note.note_name, note.user_id, note.book_id, note.tags, note.content, note.create_time,
			users.user_name, users.avatar, book.book_name
		FROM note
		JOIN users ON note.user_id = users.user_id
		JOIN book ON note.book_id = book.book_id
		WHERE note.deleted = 0 AND note.note_id = $1;
	`

	var n models.Note
	err := r.pool.QueryRow(ctx, query, noteID).Scan(
		&n.NoteID, &n.NoteName, &n.UserID, &n.BookID, &n.Tags, &n.Content, &n.CreateTime,
		&n.UserName, &n.Avatar, &n.BookName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Note{}, storage.ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *PostgresRepo) CreateNote(ctx context.Context, noteName string, userID, bookID int64, tags []string, content string) (int64, error) {
	const op = "storage.postgres.CreateNote"

	if tags == nil {
		tags = []string{}
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO note (note_name, user_id, book_id, tags, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING note_id;
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, noteName, userID, bookID, string(encoded), content).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UpdateNote(ctx context.Context, noteID int64, noteName string, tags []string, content string) error {
	const op = "storage.postgres.UpdateNote"

	if tags == nil {
		tags = []string{}
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE note SET note_name = $1, tags = $2, content = $3
		WHERE note_id = $4 AND deleted = 0;
	`

	tag, err := r.pool.Exec(ctx, query, noteName, string(encoded), content, noteID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) DeleteNote(ctx context.Context, noteID int64) error {
	return r.setNoteDeleted(ctx, noteID, 1)
}

func (r *PostgresRepo) RecoverNote(ctx context.Context, noteID int64) error {
	return r.setNoteDeleted(ctx, noteID, 0)
}

func (r *PostgresRepo) setNoteDeleted(ctx context.Context, noteID int64, deleted int) error {
	const op = "storage.postgres.setNoteDeleted"

	tag, err := r.pool.Exec(ctx, `UPDATE note SET deleted = $1 WHERE note_id = $2`, deleted, noteID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoChange
	}

	return nil
}

func (r *PostgresRepo) DeletedNotes(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Note, int64, error) {
	const op = "storage.postgres.DeletedNotes"

	query := `
		SELECT note.note_id, note.note_name, note.user_id, note.book_id, note.tags, note.content, note.create_time,
			COUNT(*) OVER() AS total
		FROM note
		WHERE note.deleted = 1 AND note.user_id = $1
		ORDER BY note.create_time DESC
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
		err := rows.Scan(&n.NoteID, &n.NoteName, &n.UserID, &n.BookID, &n.Tags, &n.Content, &n.CreateTime, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}

	return notes, total, rows.Err()
}

func (r *PostgresRepo) NoteCountByBook(ctx context.Context, bookID int64) (int64, error) {
	const op = "storage.postgres.NoteCountByBook"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM note WHERE book_id = $1 AND deleted = 0`, bookID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostgresRepo) NoteCountByUser(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.NoteCountByUser"

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM note WHERE user_id = $1 AND deleted = 0`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostgresRepo) scanJoinedNotes(ctx context.Context, op, query string, args ...any) ([]models.Note, int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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
			&n.UserName, &n.Avatar, &n.BookName, &n.LikeCount, &n.MarkCount, &n.CommentCount, &total,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}

	return notes, total, rows.Err()
}
