package book

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

type BookProvider interface {
	AllBooks(ctx context.Context, pageNum, pageSize int) ([]models.Book, int64, error)
	SearchBooks(ctx context.Context, keyword string, pageNum, pageSize int) ([]models.Book, int64, error)
	UserBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error)
	MyBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error)
	BookByID(ctx context.Context, bookID int64) (models.Book, error)
	DeletedBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error)
}

type BookMutator interface {
	CreateBook(ctx context.Context, bookName string, userID int64, isPublic bool, cover string) (int64, error)
	UpdateBook(ctx context.Context, bookID int64, bookName string, isPublic bool, cover string) error
	DeleteBook(ctx context.Context, bookID int64) error
	RecoverBook(ctx context.Context, bookID int64) error
}

type pageRequest struct {
	PageNum  int `json:"pageNum" validate:"required,min=1"`
	PageSize int `json:"pageSize" validate:"required,min=1"`
}

func All(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.All"

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

		list, total, err := books.AllBooks(ctx, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeBookList(w, r, list, total, "no notebooks yet")
	}
}

type searchRequest struct {
	Keyword  string `json:"keyword"`
	PageNum  int    `json:"pageNum" validate:"required,min=1"`
	PageSize int    `json:"pageSize" validate:"required,min=1"`
}

func Search(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Search"

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

		list, total, err := books.SearchBooks(ctx, body.Keyword, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to search notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeBookList(w, r, list, total, "no matching notebooks")
	}
}

type userBooksRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

// UserBooks lists another user's public notebooks.
func UserBooks(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.UserBooks"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userBooksRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := books.UserBooks(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list user notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeBookList(w, r, list, total, "this user has no public notebooks")
	}
}

// My lists the caller's own notebooks, private ones included.
func My(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.My"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userBooksRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := books.MyBooks(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list own notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeBookList(w, r, list, total, "no notebooks yet")
	}
}

type bookIDRequest struct {
	BookID int64 `json:"book_id" validate:"required"`
}

func MyBook(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.MyBook"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body bookIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		b, err := books.BookByID(ctx, body.BookID)
		if err != nil {
			if errors.Is(err, storage.ErrBookNotFound) {
				render.JSON(w, r, resp.Error("notebook does not exist"))
				return
			}

			log.Error("failed to load notebook", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("notebook fetched", b))
	}
}

type createRequest struct {
	BookName string `json:"book_name" validate:"required"`
	UserID   int64  `json:"user_id" validate:"required"`
	IsPublic *bool  `json:"is_public" validate:"required"`
	Cover    string `json:"cover"`
}

func Create(log *slog.Logger, validate *validator.Validate, books BookMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Create"

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

		bookID, err := books.CreateBook(ctx, body.BookName, body.UserID, *body.IsPublic, body.Cover)
		if err != nil {
			log.Error("failed to create notebook", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("notebook created", slog.Int64("book_id", bookID))

		render.JSON(w, r, resp.Success("notebook created", map[string]any{"book_id": bookID}))
	}
}

type updateRequest struct {
	BookID   int64  `json:"book_id" validate:"required"`
	BookName string `json:"book_name" validate:"required"`
	IsPublic *bool  `json:"is_public" validate:"required"`
	Cover    string `json:"cover"`
}

func Update(log *slog.Logger, validate *validator.Validate, books BookMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Update"

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

		err := books.UpdateBook(ctx, body.BookID, body.BookName, *body.IsPublic, body.Cover)
		if err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to update notebook"))
				return
			}

			log.Error("failed to update notebook", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("notebook updated"))
	}
}

// Delete soft-deletes a notebook. The row stays recoverable until a
// cleanup job drops it.
func Delete(log *slog.Logger, validate *validator.Validate, books BookMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body bookIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := books.DeleteBook(ctx, body.BookID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to delete notebook"))
				return
			}

			log.Error("failed to delete notebook", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("notebook deleted"))
	}
}

func Recover(log *slog.Logger, validate *validator.Validate, books BookMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Recover"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body bookIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := books.RecoverBook(ctx, body.BookID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to recover notebook"))
				return
			}

			log.Error("failed to recover notebook", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("notebook recovered"))
	}
}

func Deleted(log *slog.Logger, validate *validator.Validate, books BookProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.book.Deleted"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userBooksRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := books.DeletedBooks(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list deleted notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeBookList(w, r, list, total, "recycle bin is empty")
	}
}

func writeBookList(w http.ResponseWriter, r *http.Request, list []models.Book, total int64, emptyMsg string) {
	if len(list) == 0 {
		render.JSON(w, r, resp.Error(emptyMsg))
		return
	}

	render.JSON(w, r, resp.Success("notebook list fetched", map[string]any{
		"list":  list,
		"total": total,
	}))
}
