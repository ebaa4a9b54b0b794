package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"notebook_service/internal/auth"
	req "notebook_service/internal/lib/api/request"
	resp "notebook_service/internal/lib/api/response"
	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/lib/verification"
	"notebook_service/internal/models"
	"notebook_service/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const requestTimeout = 5 * time.Second

type UserSaver interface {
	SaveUser(ctx context.Context, userName, email string, passHash []byte) (int64, error)
	UserTaken(ctx context.Context, userName, email string) (bool, error)
	UpdateUser(ctx context.Context, userID int64, userName, nickName, info, avatar string) error
}

type UserProvider interface {
	UserByName(ctx context.Context, userName string) (models.User, error)
	UserInfo(ctx context.Context, userID int64) (models.User, error)
	PublicUserByName(ctx context.Context, userName string) (models.PublicUser, error)
	ListUsers(ctx context.Context, pageNum, pageSize int) ([]models.PublicUser, error)
}

type StatsProvider interface {
	HeatMap(ctx context.Context, userID int64) ([]models.HeatPoint, error)
	BookCountByUser(ctx context.Context, userID int64) (int64, error)
	NoteCountByUser(ctx context.Context, userID int64) (int64, error)
	LikesReceived(ctx context.Context, userID int64) (int64, error)
}

type loginRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks the password against the stored hash and mints a token
// binding the user's identity.
func Login(
	log *slog.Logger,
	validate *validator.Validate,
	users UserProvider,
	tokens *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Login"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body loginRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		u, err := users.UserByName(ctx, body.UserName)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("user does not exist"))

				return
			}

			log.Error("failed to load user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(body.Password)); err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("wrong password"))

			return
		}

		token, err := tokens.IssueToken(models.Identity{UserID: u.UserID, UserName: u.UserName})
		if err != nil {
			log.Error("failed to issue token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user logged in", slog.Int64("user_id", u.UserID))

		render.JSON(w, r, resp.Success("login successful", map[string]any{
			"login_user": map[string]any{
				"user_id":   u.UserID,
				"user_name": u.UserName,
				"nick_name": u.NickName,
				"avatar":    u.Avatar,
				"email":     u.Email,
				"info":      u.Info,
			},
			"token": token,
		}))
	}
}

type sendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SendCode issues a registration code. A still-pending code rejects the
// request with 429 instead of reissuing.
func SendCode(
	log *slog.Logger,
	validate *validator.Validate,
	codes *verification.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.SendCode"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body sendCodeRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := codes.RequestCode(ctx, body.Email); err != nil {
			if errors.Is(err, verification.ErrCodePending) {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, resp.Error("verification code already sent, try again later"))

				return
			}

			log.Error("failed to send verification code", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to send email"))

			return
		}

		render.JSON(w, r, resp.Success("code sent", map[string]any{"email": body.Email}))
	}
}

type registerRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func Register(
	log *slog.Logger,
	validate *validator.Validate,
	codes *verification.Service,
	users UserSaver,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Register"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body registerRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := codes.VerifyCode(ctx, body.Email, body.Code); err != nil {
			switch {
			case errors.Is(err, verification.ErrCodeExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("verification code expired"))
			case errors.Is(err, verification.ErrCodeMismatch):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("wrong verification code"))
			default:
				log.Error("failed to verify code", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		taken, err := users.UserTaken(ctx, body.UserName, body.Email)
		if err != nil {
			log.Error("failed to check user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		if taken {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("user name or email already registered"))

			return
		}

		passHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("failed to hash password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		userID, err := users.SaveUser(ctx, body.UserName, body.Email, passHash)
		if err != nil {
			if errors.Is(err, storage.ErrUserExists) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("user name or email already registered"))

				return
			}

			log.Error("failed to save user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user registered", slog.Int64("user_id", userID))

		render.JSON(w, r, resp.Success("registered", map[string]any{"user_id": userID}))
	}
}

// Logout revokes the presented token for the rest of its lifetime.
func Logout(log *slog.Logger, tokens *auth.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Logout"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := tokens.Logout(ctx, r.Header.Get("Authorization")); err != nil {
			if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid token"))

				return
			}

			log.Error("failed to log out", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("logged out"))
	}
}

type listRequest struct {
	PageNum  int `json:"pageNum" validate:"required,min=1"`
	PageSize int `json:"pageSize" validate:"required,min=1"`
}

func List(log *slog.Logger, validate *validator.Validate, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.List"

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

		list, err := users.ListUsers(ctx, body.PageNum, body.PageSize)
		if err != nil {
			log.Error("failed to list users", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if len(list) == 0 {
			render.JSON(w, r, resp.Error("user list is empty"))
			return
		}

		render.JSON(w, r, resp.Success("user list fetched", list))
	}
}

type infoRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

func Info(log *slog.Logger, validate *validator.Validate, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Info"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body infoRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		u, err := users.UserInfo(ctx, body.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("user does not exist"))

				return
			}

			log.Error("failed to load user info", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("user info fetched", u))
	}
}

type updateRequest struct {
	UserID   int64  `json:"user_id" validate:"required"`
	UserName string `json:"user_name" validate:"required"`
	NickName string `json:"nick_name"`
	Info     string `json:"info"`
	Avatar   string `json:"avatar"`
}

func Update(log *slog.Logger, validate *validator.Validate, users UserSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Update"

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

		err := users.UpdateUser(ctx, body.UserID, body.UserName, body.NickName, body.Info, body.Avatar)
		if err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				render.JSON(w, r, resp.Error("failed to update user info"))
				return
			}

			log.Error("failed to update user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK("user info updated"))
	}
}

type nameRequest struct {
	UserName string `json:"user_name" validate:"required"`
}

func Name(log *slog.Logger, validate *validator.Validate, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.Name"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var body nameRequest
		if !req.Decode(w, r, log, validate, &body) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		u, err := users.PublicUserByName(ctx, body.UserName)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("user name does not exist"))

				return
			}

			log.Error("failed to look up user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.Success("user found", u))
	}
}
