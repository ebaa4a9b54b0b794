package http_server

import (
	"log/slog"
	"net/http"

	"notebook_service/internal/auth"
	"notebook_service/internal/config"
	"notebook_service/internal/http_server/handlers/book"
	"notebook_service/internal/http_server/handlers/comment"
	"notebook_service/internal/http_server/handlers/follow"
	"notebook_service/internal/http_server/handlers/like"
	"notebook_service/internal/http_server/handlers/mark"
	"notebook_service/internal/http_server/handlers/note"
	"notebook_service/internal/http_server/handlers/reply"
	"notebook_service/internal/http_server/handlers/upload"
	"notebook_service/internal/http_server/handlers/user"
	"notebook_service/internal/lib/verification"
	"notebook_service/internal/middleware/authn"
	rateLimit "notebook_service/internal/middleware/ratelimit"
	"notebook_service/internal/models"
	"notebook_service/internal/storage/postgres"
	"notebook_service/internal/storage/s3"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// registrar records every route against the exemption policy as it is
// mounted, so the set of public paths is derived from registration and
// cannot drift from the actual route table.
type registrar struct {
	r       chi.Router
	policy  *authn.Policy
	require func(http.Handler) http.Handler
	prefix  string
}

func (reg *registrar) post(path string, requirement authn.Requirement, h http.HandlerFunc, extra ...func(http.Handler) http.Handler) {
	reg.policy.Register(reg.prefix+path, requirement)

	mws := extra
	if requirement == authn.RequiresIdentity {
		mws = append([]func(http.Handler) http.Handler{reg.require}, extra...)
	}

	if len(mws) > 0 {
		reg.r.With(mws...).Post(path, h)
		return
	}

	reg.r.Post(path, h)
}

// NewRouter mounts the full REST surface. Every route is declared with
// its authentication requirement in one place.
func NewRouter(
	log *slog.Logger,
	cfg *config.Config,
	store *postgres.PostgresRepo,
	tokens *auth.Auth,
	codes *verification.Service,
	objects *s3.ObjectStore,
) *chi.Mux {
	validate := validator.New()
	policy := authn.NewPolicy()
	require := authn.Require(log, tokens)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost", "http://localhost:5173", cfg.HTTPServer.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(rateLimit.API())
	r.Use(authn.Gate(log, policy, tokens))

	r.Route("/api/user", func(cr chi.Router) {
		reg := &registrar{r: cr, policy: policy, require: require, prefix: "/api/user"}

		reg.post("/login", authn.Public, user.Login(log, validate, store, tokens), rateLimit.Login())
		reg.post("/sendcode", authn.Public, user.SendCode(log, validate, codes), rateLimit.SendCode())
		reg.post("/register", authn.Public, user.Register(log, validate, codes, store), rateLimit.Register())
		reg.post("/list", authn.Public, user.List(log, validate, store))
		reg.post("/name", authn.Public, user.Name(log, validate, store))

		reg.post("/logout", authn.RequiresIdentity, user.Logout(log, tokens))
		reg.post("/info", authn.RequiresIdentity, user.Info(log, validate, store))
		reg.post("/update", authn.RequiresIdentity, user.Update(log, validate, store))

		reg.post("/follow", authn.RequiresIdentity, follow.Follow(log, validate, store))
		reg.post("/unfollow", authn.RequiresIdentity, follow.Unfollow(log, validate, store))
		reg.post("/follow/isFollowed", authn.RequiresIdentity, follow.IsFollowed(log, validate, store))
		reg.post("/follower/isFollower", authn.RequiresIdentity, follow.IsFollower(log, validate, store))
		reg.post("/followed", authn.RequiresIdentity, follow.Followed(log, validate, store))
		reg.post("/follower", authn.RequiresIdentity, follow.Followers(log, validate, store))

		reg.post("/favoriteNotebooks", authn.RequiresIdentity, user.FavoriteNotebooks(log, validate, store))
		reg.post("/favoriteNotes", authn.RequiresIdentity, user.FavoriteNotes(log, validate, store))
		reg.post("/heat", authn.RequiresIdentity, user.Heat(log, validate, store))
		reg.post("/replyuser", authn.RequiresIdentity, reply.Users(log, validate, store))
		reg.post("/notebookNum", authn.RequiresIdentity, user.NotebookNum(log, validate, store))
		reg.post("/noteNum", authn.RequiresIdentity, user.NoteNum(log, validate, store))
		reg.post("/likeNum", authn.RequiresIdentity, user.LikeNum(log, validate, store))
	})

	r.Route("/api/book", func(cr chi.Router) {
		reg := &registrar{r: cr, policy: policy, require: require, prefix: "/api/book"}

		reg.post("/all", authn.Public, book.All(log, validate, store))
		reg.post("/all/notes", authn.Public, note.All(log, validate, store))
		reg.post("/search", authn.Public, book.Search(log, validate, store))
		reg.post("/note/search", authn.Public, note.Search(log, validate, store))
		reg.post("/user", authn.Public, book.UserBooks(log, validate, store))

		reg.post("/like", authn.Public, like.Count(log, validate, store, models.TypeBook))
		reg.post("/mark", authn.Public, mark.Count(log, validate, store, models.TypeBook))
		reg.post("/note/count", authn.Public, note.Count(log, validate, store))
		reg.post("/comment/count", authn.Public, comment.Count(log, validate, store, models.TypeBook))
		reg.post("/note/like", authn.Public, like.Count(log, validate, store, models.TypeNote))
		reg.post("/note/mark", authn.Public, mark.Count(log, validate, store, models.TypeNote))
		reg.post("/note/comment/count", authn.Public, comment.Count(log, validate, store, models.TypeNote))
		reg.post("/comment/like", authn.Public, like.Count(log, validate, store, models.TypeComment))
		reg.post("/comment/reply/count", authn.Public, reply.Count(log, validate, store))
		reg.post("/reply/like", authn.Public, like.Count(log, validate, store, models.TypeReply))

		reg.post("/my", authn.RequiresIdentity, book.My(log, validate, store))
		reg.post("/my/book", authn.RequiresIdentity, book.MyBook(log, validate, store))
		reg.post("/my/notes", authn.RequiresIdentity, note.BookNotes(log, validate, store))
		reg.post("/my/note", authn.RequiresIdentity, note.MyNote(log, validate, store))

		reg.post("/comment", authn.RequiresIdentity, comment.List(log, validate, store, models.TypeBook))
		reg.post("/note/comment", authn.RequiresIdentity, comment.List(log, validate, store, models.TypeNote))
		reg.post("/comment/reply", authn.RequiresIdentity, reply.List(log, validate, store))

		reg.post("/create", authn.RequiresIdentity, book.Create(log, validate, store))
		reg.post("/update", authn.RequiresIdentity, book.Update(log, validate, store))
		reg.post("/delete", authn.RequiresIdentity, book.Delete(log, validate, store))
		reg.post("/my/deleted", authn.RequiresIdentity, book.Deleted(log, validate, store))
		reg.post("/my/deleted/recover", authn.RequiresIdentity, book.Recover(log, validate, store))

		reg.post("/note/create", authn.RequiresIdentity, note.Create(log, validate, store))
		reg.post("/note/update", authn.RequiresIdentity, note.Update(log, validate, store))
		reg.post("/note/delete", authn.RequiresIdentity, note.Delete(log, validate, store))
		reg.post("/note/my/deleted", authn.RequiresIdentity, note.Deleted(log, validate, store))
		reg.post("/note/my/deleted/recover", authn.RequiresIdentity, note.Recover(log, validate, store))

		reg.post("/comment/create/book", authn.RequiresIdentity, comment.Create(log, validate, store, models.TypeBook))
		reg.post("/comment/create/note", authn.RequiresIdentity, comment.Create(log, validate, store, models.TypeNote))
		reg.post("/reply/create/comment", authn.RequiresIdentity, reply.CreateToComment(log, validate, store))
		reg.post("/reply/create/reply", authn.RequiresIdentity, reply.CreateToReply(log, validate, store))
		reg.post("/comment/isMyComment", authn.RequiresIdentity, comment.IsMine(log, validate, store))
		reg.post("/comment/isMyReply", authn.RequiresIdentity, reply.IsMine(log, validate, store))
		reg.post("/comment/delete", authn.RequiresIdentity, comment.Delete(log, validate, store))
		reg.post("/reply/delete", authn.RequiresIdentity, reply.Delete(log, validate, store))

		reg.post("/like/book", authn.RequiresIdentity, like.Like(log, validate, store, models.TypeBook))
		reg.post("/like/book/isLiked", authn.RequiresIdentity, like.IsLiked(log, validate, store, models.TypeBook))
		reg.post("/like/book/unlike", authn.RequiresIdentity, like.Unlike(log, validate, store, models.TypeBook))
		reg.post("/like/note", authn.RequiresIdentity, like.Like(log, validate, store, models.TypeNote))
		reg.post("/like/note/isLiked", authn.RequiresIdentity, like.IsLiked(log, validate, store, models.TypeNote))
		reg.post("/like/note/unlike", authn.RequiresIdentity, like.Unlike(log, validate, store, models.TypeNote))
		reg.post("/like/comment", authn.RequiresIdentity, like.Like(log, validate, store, models.TypeComment))
		reg.post("/like/comment/isLiked", authn.RequiresIdentity, like.IsLiked(log, validate, store, models.TypeComment))
		reg.post("/like/comment/unlike", authn.RequiresIdentity, like.Unlike(log, validate, store, models.TypeComment))
		reg.post("/like/reply", authn.RequiresIdentity, like.Like(log, validate, store, models.TypeReply))
		reg.post("/like/reply/isLiked", authn.RequiresIdentity, like.IsLiked(log, validate, store, models.TypeReply))
		reg.post("/like/reply/unlike", authn.RequiresIdentity, like.Unlike(log, validate, store, models.TypeReply))

		reg.post("/mark/book", authn.RequiresIdentity, mark.Mark(log, validate, store, models.TypeBook))
		reg.post("/mark/book/isMarked", authn.RequiresIdentity, mark.IsMarked(log, validate, store, models.TypeBook))
		reg.post("/mark/book/unmark", authn.RequiresIdentity, mark.Unmark(log, validate, store, models.TypeBook))
		reg.post("/mark/note", authn.RequiresIdentity, mark.Mark(log, validate, store, models.TypeNote))
		reg.post("/mark/note/isMarked", authn.RequiresIdentity, mark.IsMarked(log, validate, store, models.TypeNote))
		reg.post("/mark/note/unmark", authn.RequiresIdentity, mark.Unmark(log, validate, store, models.TypeNote))
	})

	r.Route("/api/oss", func(cr chi.Router) {
		reg := &registrar{r: cr, policy: policy, require: require, prefix: "/api/oss"}

		reg.post("/upload", authn.RequiresIdentity, upload.File(log, objects))
	})

	return r
}
