package mark

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

type MarkStorage interface {
	MarkCount(ctx context.Context, objectID int64, objectType int) (int64, error)
	IsMarked(ctx context.Context, userID, objectID int64, objectType int) (bool, error)
	Mark(ctx context.Context, userID, objectID int64, objectType int) error
	Unmark(ctx context.Context, userID, objectID int64, objectType int) error
}

type countRequest struct {
	ObjectID int64 `json:"object_id" validate:"required"`
}

func Count(log *slog.Logger, validate *validator.Validate, marks MarkStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mark.Count"

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

		n, err := marks.MarkCount(ctx, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to count marks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("favorite count fetched", n))
	}
}

type userObjectRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	ObjectID int64 `json:"object_id" validate:"required"`
}

func IsMarked(log *slog.Logger, validate *validator.Validate, marks MarkStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mark.IsMarked"

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

		marked, err := marks.IsMarked(ctx, body.UserID, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to check favorite", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", marked))
	}
}

// Mark adds an object to the user's favorites. Same check-then-insert
// shape as likes, with the same concurrency caveat.
func Mark(log *slog.Logger, validate *validator.Validate, marks MarkStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mark.Mark"

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

		marked, err := marks.IsMarked(ctx, body.UserID, body.ObjectID, objectType)
		if err != nil {
			log.Error("failed to check favorite", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		if marked {
			render.JSON(w, r, resp.Error("already in favorites"))
			return
		}

		if err := marks.Mark(ctx, body.UserID, body.ObjectID, objectType); err != nil {
			log.Error("failed to save favorite", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("added to favorites"))
	}
}

func Unmark(log *slog.Logger, validate *validator.Validate, marks MarkStorage, objectType int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.mark.Unmark"

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

		if err := marks.Unmark(ctx, body.UserID, body.ObjectID, objectType); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("not in favorites"))
				return
			}

			log.Error("failed to remove favorite", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("removed from favorites"))
	}
}
