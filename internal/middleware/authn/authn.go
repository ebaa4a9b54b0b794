package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"notebook_service/internal/auth"
	resp "notebook_service/internal/lib/api/response"
	"notebook_service/internal/models"

	"github.com/go-chi/render"
)

// Requirement is a route's declared authentication need. Every route
// registers exactly one requirement against the shared Policy, so the
// exemption set can never drift from route registration.
type Requirement int

const (
	// Public routes skip the credential chain entirely; handlers that
	// still need a user id read it from the request body.
	Public Requirement = iota
	// RequiresIdentity routes reject before the handler runs unless a
	// valid, unrevoked token is presented.
	RequiresIdentity
)

// Policy is the single route-exemption authority. Exempt paths match on
// segment boundaries: "/api/book" covers "/api/book" and "/api/book/",
// never "/api/bookshelf".
type Policy struct {
	mu     sync.RWMutex
	exempt []*regexp.Regexp
}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) Register(path string, req Requirement) {
	if req != Public {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.exempt = append(p.exempt, regexp.MustCompile("^"+regexp.QuoteMeta(path)+"($|/)"))
}

func (p *Policy) IsExempt(path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, re := range p.exempt {
		if re.MatchString(path) {
			return true
		}
	}

	return false
}

type identityKey struct{}

// IdentityFromContext returns the identity the gate attached, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(models.Identity)
	return identity, ok
}

// Authenticator is the one verification function both gates share, so
// rejection semantics cannot diverge between them.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (models.Identity, error)
}

// Gate is the global middleware: exempt paths pass straight through with
// no identity attached, everything else goes through the credential chain.
func Gate(log *slog.Logger, policy *Policy, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.IsExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticate(w, r, log, authenticator)
			if err != nil {
				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), identityKey{}, identity),
			))
		})
	}
}

// Require is the per-route gate for handlers that must not run without an
// identity even if the global gate is misconfigured. It re-runs the same
// authentication function, so both gates reject identically.
func Require(log *slog.Logger, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticate(w, r, log, authenticator)
			if err != nil {
				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), identityKey{}, identity),
			))
		})
	}
}

// authenticate runs the credential chain and writes the 401 envelope on
// failure. The returned error only signals "response already written".
func authenticate(w http.ResponseWriter, r *http.Request, log *slog.Logger, authenticator Authenticator) (models.Identity, error) {
	identity, err := authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		log.Warn("request rejected",
			slog.String("path", r.URL.Path),
			slog.String("reason", err.Error()),
		)

		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(rejectionMessage(err)))

		return models.Identity{}, fmt.Errorf("unauthenticated: %w", err)
	}

	return identity, nil
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing access token"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "login expired"
	default:
		return "invalid token"
	}
}
