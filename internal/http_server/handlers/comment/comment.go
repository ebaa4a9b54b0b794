package comment

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

type CommentStorage interface {
	Comments(ctx context.Context, objectID int64, objectType int, viewerID int64, pageNum, pageSize int) ([]models.Comment, int64, error)
	CreateComment(ctx context.Context, content string, userID, objectID int64, objectType int) (int64, error)
	DeleteComment(ctx context.Context, commentID int64) error
	IsMyComment(ctx context.Context, userID, commentID int64) (bool, error)
	CommentCount(ctx context.Context, objectID int64, objectType int) (int64, error)
}

type listRequest struct {
	ObjectID int64 `json:"object_id" validate:"required"`
	UserID   int64 `json:"user_id"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

// List returns comments under a notebook or note. UserID marks which
// comments the viewer has liked; zero means an anonymous viewer.
func List(log *slog.Logger, validate *validator.Validate, comments CommentStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body listRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		list, total, err := comments.Comments(ctx, body.ObjectID, objectType, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list comments", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if len(list) == 0 {
			render.JSON(w, r, resp.Error("no comments yet"))
			return
		}

		render.JSON(w, r, resp.Success("comment list fetched", map[string]any{
			"list":  list,
			"total": total,
		}))
	}
}

type createRequest struct {
	Content  string `json:"content" validate:"required"`
	UserID   int64  `json:"user_id" validate:"required"`
	ObjectID int64  `json:"object_id" validate:"required"`
}

func Create(log *slog.Logger, validate *validator.Validate, comments CommentStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.Create"

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

		commentID, err := comments.CreateComment(ctx, body.Content, body.UserID, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to create comment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("comment created", map[string]any{"comment_id": commentID}))
	}
}

type commentIDRequest struct {
	CommentID int64 `json:"comment_id" validate:"required"`
}

func Delete(log *slog.Logger, validate *validator.Validate, comments CommentStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body commentIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := comments.DeleteComment(ctx, body.CommentID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to delete comment"))
				return
			}

			log.Error("failed to delete comment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("comment deleted"))
	}
}

type isMineRequest struct {
	UserID    int64 `json:"user_id" validate:"required"`
	CommentID int64 `json:"comment_id" validate:"required"`
}

// IsMine reports whether the comment belongs to the given user, so the
// client can show a delete button.
func IsMine(log *slog.Logger, validate *validator.Validate, comments CommentStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.IsMine"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body isMineRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		mine, err := comments.IsMyComment(ctx, body.UserID, body.CommentID)
		if err != nil {
			log.Error("failed to check comment owner", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", mine))
	}
}

type countRequest struct {
	ObjectID int64 `json:"object_id" validate:"required"`
}

func Count(log *slog.Logger, validate *validator.Validate, comments CommentStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.comment.Count"

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

		n, err := comments.CommentCount(ctx, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to count comments", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("comment count fetched", n))
	}
}
