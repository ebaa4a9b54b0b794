package follow

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

type FollowStorage interface {
	IsFollowing(ctx context.Context, followerID, userID int64) (bool, error)
	Follow(ctx context.Context, userID, followerID int64) error
	Unfollow(ctx context.Context, userID, followerID int64) error
	Following(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.PublicUser, int64, error)
	Followers(ctx context.Context, userID int64, pageNum, pageSize int) ([]models.PublicUser, int64, error)
}

type followPairRequest struct {
	UserID     int64 `json:"user_id" validate:"required"`
	FollowerID int64 `json:"follower_id" validate:"required"`
}

// Follow records follower_id following user_id.
func Follow(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.Follow"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body followPairRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		if body.UserID == body.FollowerID {
			render.JSON(w, r, resp.Error("cannot follow yourself"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		following, err := follows.IsFollowing(ctx, body.FollowerID, body.UserID)
		if err != nil {
			log.Error("failed to check follow", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		if following {
			render.JSON(w, r, resp.Error("already following"))
			return
		}

		if err := follows.Follow(ctx, body.UserID, body.FollowerID); err != nil {
			log.Error("failed to save follow", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("followed"))
	}
}

func Unfollow(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.Unfollow"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body followPairRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := follows.Unfollow(ctx, body.UserID, body.FollowerID); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("not following"))
				return
			}

			log.Error("failed to remove follow", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("unfollowed"))
	}
}

// IsFollowed reports whether follower_id follows user_id.
func IsFollowed(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.IsFollowed"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body followPairRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		following, err := follows.IsFollowing(ctx, body.FollowerID, body.UserID)
		if err != nil {
			log.Error("failed to check follow", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", following))
	}
}

// IsFollower is the reverse check: whether user_id follows follower_id.
func IsFollower(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.IsFollower"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body followPairRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		follower, err := follows.IsFollowing(ctx, body.UserID, body.FollowerID)
		if err != nil {
			log.Error("failed to check follower", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("checked", follower))
	}
}

type listRequest struct {
	UserID   int64 `json:"user_id" validate:"required"`
	PageNum  int   `json:"pageNum" validate:"required,min=1"`
	PageSize int   `json:"pageSize" validate:"required,min=1"`
}

func Followed(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.Followed"

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

		list, total, err := follows.Following(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list followed users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeUserList(w, r, list, total, "not following anyone yet")
	}
}

func Followers(log *slog.Logger, validate *validator.Validate, follows FollowStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.follow.Followers"

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

		list, total, err := follows.Followers(ctx, body.UserID, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list followers", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		writeUserList(w, r, list, total, "no followers yet")
	}
}

func writeUserList(w http.ResponseWriter, r *http.Request, list []models.PublicUser, total int64, emptyMsg string) {
	if len(list) == 0 {
		render.JSON(w, r, resp.Error(emptyMsg))
		return
	}

	render.JSON(w, r, resp.Success("user list fetched", map[string]any{
		"list":  list,
		"total": total,
	}))
}
