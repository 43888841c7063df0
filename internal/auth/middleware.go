package auth

import (
	"context"
	"net/http"

	"pocketauth-backend/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "pocketauth_session"

type sessionContext struct {
	session *models.Session
	user    *models.User
}

// SessionValidator is the slice of Store the middleware needs.
type SessionValidator interface {
	ValidateSessionToken(ctx context.Context, rawToken string) (*models.Session, *models.User, error)
}

// Middleware resolves the session cookie once per request and stashes
// the result in the context; downstream code reads the memoized value
// instead of hitting storage again. Requests without a valid session
// pass through with an empty context entry.
func Middleware(store SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken := SessionTokenFromRequest(r)
			if rawToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, user, err := store.ValidateSessionToken(r.Context(), rawToken)
			if err != nil {
				http.Error(w, "something went wrong", http.StatusInternalServerError)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sessionContext{session: session, user: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not resolve to a session.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	value, ok := ctx.Value(sessionContextKey).(sessionContext)
	if !ok || value.session == nil {
		return nil, false
	}
	return value.session, true
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	value, ok := ctx.Value(sessionContextKey).(sessionContext)
	if !ok || value.user == nil {
		return nil, false
	}
	return value.user, true
}
