package reply

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

type ReplyStorage interface {
	CommentReplies(ctx context.Context, commentID int64, pageNum, pageSize int) ([]models.Reply, error)
	CreateReplyToComment(ctx context.Context, content string, userID, commentID int64) (int64, error)
	CreateReplyToReply(ctx context.Context, content string, userID, objectID, commentID int64) (int64, error)
	DeleteReply(ctx context.Context, replyID int64) error
	IsMyReply(ctx context.Context, userID, commentID int64) (bool, error)
	ReplyCount(ctx context.Context, commentID int64) (int64, error)
	ReplyUsers(ctx context.Context, replyID int64) ([]models.Identity, error)
}

type listRequest struct {
	CommentID int64 `json:"comment_id" validate:"required"`
	PageNum   int   `json:"pageNum" validate:"required,min=1"`
	PageSize  int   `json:"pageSize" validate:"required,min=1"`
}

// List returns the reply thread under a comment, oldest first.
func List(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.List"

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

		list, err := replies.CommentReplies(ctx, body.CommentID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list replies", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if len(list) == 0 {
			render.JSON(w, r, resp.Error("no replies yet"))
			return
		}

		render.JSON(w, r, resp.Success("reply list fetched", list))
	}
}

type createToCommentRequest struct {
	Content   string `json:"content" validate:"required"`
	UserID    int64  `json:"user_id" validate:"required"`
	CommentID int64  `json:"comment_id" validate:"required"`
}

func CreateToComment(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.CreateToComment"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body createToCommentRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		replyID, err := replies.CreateReplyToComment(ctx, body.Content, body.UserID, body.CommentID)
		if err != nil {
			log.Error("failed to create reply", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("reply created", map[string]any{"reply_id": replyID}))
	}
}

type createToReplyRequest struct {
	Content   string `json:"content" validate:"required"`
	UserID    int64  `json:"user_id" validate:"required"`
	ReplyID   int64  `json:"reply_id" validate:"required"`
	CommentID int64  `json:"comment_id" validate:"required"`
}

// CreateToReply answers an existing reply. CommentID keeps the new row
// in the same thread as the reply it answers.
func CreateToReply(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.CreateToReply"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body createToReplyRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		replyID, err := replies.CreateReplyToReply(ctx, body.Content, body.UserID, body.ReplyID, body.CommentID)
		if err != nil {
			log.Error("failed to create reply", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("reply created", map[string]any{"reply_id": replyID}))
	}
}

type replyIDRequest struct {
	ReplyID int64 `json:"reply_id" validate:"required"`
}

func Delete(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body replyIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := replies.DeleteReply(ctx, body.ReplyID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to delete reply"))
				return
			}

			log.Error("failed to delete reply", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("reply deleted"))
	}
}

type isMineRequest struct {
	UserID    int64 `json:"user_id" validate:"required"`
	CommentID int64 `json:"comment_id" validate:"required"`
}

func IsMine(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.IsMine"

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

		mine, err := replies.IsMyReply(ctx, body.UserID, body.CommentID)
		if err != nil {
			log.Error("failed to check reply owner", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", mine))
	}
}

type countRequest struct {
	CommentID int64 `json:"comment_id" validate:"required"`
}

func Count(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.Count"

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

		n, err := replies.ReplyCount(ctx, body.CommentID)
		if err != nil {
			log.Error("failed to count replies", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("reply count fetched", n))
	}
}

// Users resolves who wrote a reply and who it answered, for rendering
// the "A replied to B" line.
func Users(log *slog.Logger, validate *validator.Validate, replies ReplyStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reply.Users"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body replyIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		users, err := replies.ReplyUsers(ctx, body.ReplyID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				render.JSON(w, r, resp.Error("reply does not exist"))
				return
			}

			log.Error("failed to resolve reply users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("reply users fetched", users))
	}
}
