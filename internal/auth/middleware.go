package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/pkg/respond"
)

const SessionCookie = "session"

type ctxKey struct{}

// Resolver turns request credentials into an identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

type Middleware struct {
	resolver Resolver
	logger   *zap.Logger
}

func NewMiddleware(resolver Resolver, logger *zap.Logger) *Middleware {
	return &Middleware{
		resolver: resolver,
		logger:   logger,
	}
}

// RequireUser rejects requests without a resolvable caller before they reach
// next. The identity is stored in the request context.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolver.Resolve(r.Context(), TokenFromRequest(r))
		switch {
		case errors.Is(err, ErrUnauthenticated):
			respond.Error(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		case err != nil:
			m.logger.Error("identity lookup failed", zap.Error(err))
			respond.Error(w, r, http.StatusInternalServerError, repo.Message(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(model.Identity)
	return identity, ok && identity.UserID != ""
}
