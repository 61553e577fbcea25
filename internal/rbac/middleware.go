package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/httpx"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
)

// PrincipalLoader fetches the current state of a user for authorization.
type PrincipalLoader interface {
	Principal(ctx context.Context, userID int64) (Principal, error)
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	RecordDecision(guard string, allowed bool)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Loader   PrincipalLoader
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

type checkerContextKey struct{}

// ContextWithChecker stores the request's checker in ctx.
func ContextWithChecker(ctx context.Context, c *Checker) context.Context {
	return context.WithValue(ctx, checkerContextKey{}, c)
}

// CheckerFromContext returns the checker attached by Middleware, if any.
func CheckerFromContext(ctx context.Context) *Checker {
	c, _ := ctx.Value(checkerContextKey{}).(*Checker)
	return c
}

// Authenticate loads the session user's checker into the request context.
// Requests without a signed-in user pass through untouched.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		checker, err := m.load(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			m.logError("rbac authenticate", userID, err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithChecker(r.Context(), checker)))
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	required := NormalizeGrants(perms)
	return m.guard("any", func(c *Checker) bool {
		return len(required) == 0 || c.HasAny(required...)
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	required := NormalizeGrants(perms)
	return m.guard("all", func(c *Checker) bool {
		return c.HasAll(required...)
	})
}

// RequireSuperAdmin ensures the current user is a super admin.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return m.guard("super_admin", func(c *Checker) bool {
		return c.IsSuperAdmin()
	})
}

func (m Middleware) guard(name string, allow func(*Checker) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker := CheckerFromContext(r.Context())
			if checker == nil {
				userID, ok := m.currentUserID(r)
				if !ok {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
					return
				}
				var err error
				checker, err = m.load(r.Context(), userID)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
						return
					}
					m.logError("rbac require "+name, userID, err)
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				r = r.WithContext(ContextWithChecker(r.Context(), checker))
			}
			allowed := allow(checker)
			if m.Recorder != nil {
				m.Recorder.RecordDecision(name, allowed)
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) load(ctx context.Context, userID int64) (*Checker, error) {
	if m.Loader == nil {
		return nil, errors.New("rbac: principal loader not configured")
	}
	principal, err := m.Loader.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !principal.PrincipalRole().Valid() {
		return nil, ErrInvalidRole
	}
	return CheckerFor(principal), nil
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func (m Middleware) logError(msg string, userID int64, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Int64("user_id", userID), slog.Any("error", err))
	}
}
