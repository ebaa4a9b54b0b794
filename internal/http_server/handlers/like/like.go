package like

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	req "notebook_service/internal/lib/api/request"
	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const requestTimeout = 5 * time.Second

type LikeStorage interface {
	LikeCount(ctx context.Context, objectID int64, objectType int) (int64, error)
	IsLiked(ctx context.Context, userID, objectID int64, objectType int) (bool, error)
	Like(ctx context.Context, userID, objectID int64, objectType int) error
	Unlike(ctx context.Context, userID, objectID int64, objectType int) error
}

type countRequest struct {
	ObjectID int64 `json:"object_id" validate:"required"`
}

func Count(log *slog.Logger, validate *validator.Validate, likes LikeStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.Count"

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

		n, err := likes.LikeCount(ctx, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to count likes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("like count fetched", n))
	}
}

type userObjectRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	ObjectID int64 `json:"object_id" validate:"required"`
}

func IsLiked(log *slog.Logger, validate *validator.Validate, likes LikeStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.IsLiked"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userObjectRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		liked, err := likes.IsLiked(ctx, body.UserID, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to check like", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", liked))
	}
}

// Like records a like unless one already exists. The existence check
// and the insert are separate statements, so two concurrent requests
// can both pass the check and insert twice.
func Like(log *slog.Logger, validate *validator.Validate, likes LikeStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.Like"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userObjectRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		liked, err := likes.IsLiked(ctx, body.UserID, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to check like", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		if liked {
			render.JSON(w, r, resp.Error("already liked"))
			return
		}

		if err := likes.Like(ctx, body.UserID, body.ObjectID, objectType); err != nil {
			log.Error("failed to save like", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("liked"))
	}
}

func Unlike(log *slog.Logger, validate *validator.Validate, likes LikeStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.like.Unlike"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userObjectRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := likes.Unlike(ctx, body.UserID, body.ObjectID, objectType); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("not liked yet"))
				return
			}

			log.Error("failed to remove like", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("unliked"))
	}
}
