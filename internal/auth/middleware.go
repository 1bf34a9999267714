package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user placed by RequireUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}

// Middleware resolves the session into a trusted actor for downstream
// handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser rejects unauthenticated requests and loads the current user
// and actor into the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		id, err := uuid.Parse(sess.User())
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		user, err := m.Service.UserByID(r.Context(), id)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("session user lookup failed", slog.String("user_id", sess.User()), slog.Any("error", err))
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = shared.ContextWithActor(ctx, user.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
