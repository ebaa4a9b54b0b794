package note

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	req "notebook_service/internal/lib/api/request"
	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const requestTimeout = 5 * time.Second

type NoteProvider interface {
	AllNotes(ctx context.Context, pageNum, pageSize int) ([]models.Note, int64, error)
	SearchNotes(ctx context.Context, keyword, bookName string, tags []string, pageNum, pageSize int) ([]models.Note, int64, error)
	BookNotes(ctx context.Context, bookID int64, pageNum, pageSize int) ([]models.Note, int64, error)
	NoteByID(ctx context.Context, noteID int64) (models.Note, error)
	DeletedNotes(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Note, int64, error)
	NoteCountByBook(ctx context.Context, bookID int64) (int64, error)
}

type NoteMutator interface {
	CreateNote(ctx context.Context, noteName string, userID, bookID int64, tags []string, content string) (int64, error)
	UpdateNote(ctx context.Context, noteID int64, noteName string, tags []string, content string) error
	DeleteNote(ctx context.Context, noteID int64) error
	RecoverNote(ctx context.Context, noteID int64) error
}

type pageRequest struct {
	PageNum  int `json:"pageNum" validate:"required,min=1"`
	PageSize int `json:"pageSize" validate:"required,min=1"`
}

func All(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.All"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body pageRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := notes.AllNotes(ctx, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeNoteList(w, r, list, total, "no notes yet")
	}
}

type searchRequest struct {
	Keyword  string   `json:"keyword"`
	BookName string   `json:"book_name"`
	Tags     []string `json:"tags"`
	PageNum  int      `json:"pageNum" validate:"required,min=1"`
	PageSize int      `json:"pageSize" validate:"required,min=1"`
}

// Search filters public notes by keyword, notebook name and tags. All
// filters are optional and combine with AND.
func Search(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Search"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body searchRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := notes.SearchNotes(ctx, body.Keyword, body.BookName, body.Tags, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to search notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeNoteList(w, r, list, total, "no matching notes")
	}
}

type bookNotesRequest struct {
	BookID   int64 `json:"book_id" validate:"required"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

func BookNotes(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.BookNotes"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body bookNotesRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := notes.BookNotes(ctx, body.BookID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list notebook notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeNoteList(w, r, list, total, "this notebook has no notes")
	}
}

type noteIDRequest struct {
	NoteID int64 `json:"note_id" validate:"required"`
}

func MyNote(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.MyNote"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body noteIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		n, err := notes.NoteByID(ctx, body.NoteID)
		if err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				render.JSON(w, r, resp.Error("note does not exist"))
				return
			}

			log.Error("failed to load note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("note fetched", n))
	}
}

type createRequest struct {
	NoteName string   `json:"note_name" validate:"required"`
	UserID   int64    `json:"user_id" validate:"required"`
	BookID   int64    `json:"book_id" validate:"required"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content"`
}

func Create(log *slog.Logger, validate *validator.Validate, notes NoteMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body createRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		noteID, err := notes.CreateNote(ctx, body.NoteName, body.UserID, body.BookID, body.Tags, body.Content)
		if err != nil {
			log.Error("failed to create note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("note created", slog.Int64("note_id", noteID))

		render.JSON(w, r, resp.Success("note created", map[string]any{"note_id": noteID}))
	}
}

type updateRequest struct {
	NoteID   int64    `json:"note_id" validate:"required"`
	NoteName string   `json:"note_name" validate:"required"`
	Tags     []string `json:"tags"`
	Content  string   `json:"content"`
}

func Update(log *slog.Logger, validate *validator.Validate, notes NoteMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body updateRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		err := notes.UpdateNote(ctx, body.NoteID, body.NoteName, body.Tags, body.Content)
		if err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to update note"))
				return
			}

			log.Error("failed to update note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("note updated"))
	}
}

func Delete(log *slog.Logger, validate *validator.Validate, notes NoteMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body noteIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := notes.DeleteNote(ctx, body.NoteID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to delete note"))
				return
			}

			log.Error("failed to delete note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("note deleted"))
	}
}

func Recover(log *slog.Logger, validate *validator.Validate, notes NoteMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Recover"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body noteIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := notes.RecoverNote(ctx, body.NoteID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to recover note"))
				return
			}

			log.Error("failed to recover note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("note recovered"))
	}
}

type deletedRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

func Deleted(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Deleted"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body deletedRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := notes.DeletedNotes(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list deleted notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeNoteList(w, r, list, total, "recycle bin is empty")
	}
}

type countRequest struct {
	BookID int64 `json:"book_id" validate:"required"`
}

func Count(log *slog.Logger, validate *validator.Validate, notes NoteProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.note.Count"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body countRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		n, err := notes.NoteCountByBook(ctx, body.BookID)
		if err != nil {
			log.Error("failed to count notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("note count fetched", n))
	}
}

func writeNoteList(w http.ResponseWriter, r *http.Request, list []models.Note, total int64, emptyMsg string) {
	if len(list) == 0 {
		render.JSON(w, r, resp.Error(emptyMsg))
		return
	}

	render.JSON(w, r, resp.Success("note list fetched", map[string]any{
		"list":  list,
		"total": total,
	}))
}
