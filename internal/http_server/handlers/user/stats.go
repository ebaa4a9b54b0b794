package user

import (
	"context"
	"log/slog"
	"net/http"

	req "notebook_service/internal/lib/api/request"
	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type FavoritesProvider interface {
	FavoriteBooks(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Book, int64, error)
	FavoriteNotes(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.Note, int64, error)
}

type userIDRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// Heat aggregates a user's writing activity over the trailing year,
// one point per day with a bucketed intensity level.
func Heat(log *slog.Logger, validate *validator.Validate, stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Heat"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		points, err := stats.HeatMap(ctx, body.UserID)
		if err != nil {
			log.Error("failed to build heat map", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("heat map fetched", points))
	}
}

func NotebookNum(log *slog.Logger, validate *validator.Validate, stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.NotebookNum"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		n, err := stats.BookCountByUser(ctx, body.UserID)
		if err != nil {
			log.Error("failed to count notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("notebook count fetched", n))
	}
}

func NoteNum(log *slog.Logger, validate *validator.Validate, stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.NoteNum"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		n, err := stats.NoteCountByUser(ctx, body.UserID)
		if err != nil {
			log.Error("failed to count notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("note count fetched", n))
	}
}

// LikeNum totals the likes received across everything the user published.
func LikeNum(log *slog.Logger, validate *validator.Validate, stats StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.LikeNum"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body userIDRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		n, err := stats.LikesReceived(ctx, body.UserID)
		if err != nil {
			log.Error("failed to count received likes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("like count fetched", n))
	}
}

type favoritesRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

func FavoriteNotebooks(log *slog.Logger, validate *validator.Validate, favorites FavoritesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.FavoriteNotebooks"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body favoritesRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		books, total, err := favorites.FavoriteBooks(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list favorite notebooks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if len(books) == 0 {
			render.JSON(w, r, resp.Error("no favorite notebooks yet"))
			return
		}

		render.JSON(w, r, resp.Success("favorite notebooks fetched", map[string]any{
			"list":  books,
			"total": total,
		}))
	}
}

func FavoriteNotes(log *slog.Logger, validate *validator.Validate, favorites FavoritesProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.FavoriteNotes"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body favoritesRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		notes, total, err := favorites.FavoriteNotes(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list favorite notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if len(notes) == 0 {
			render.JSON(w, r, resp.Error("no favorite notes yet"))
			return
		}

		render.JSON(w, r, resp.Success("favorite notes fetched", map[string]any{
			"list":  notes,
			"total": total,
		}))
	}
}
