package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/oakward/identity/internal/auth"
)

type contextKey struct{ name string }

var userContextKey = contextKey{"user"}

// Authenticator resolves a bearer access token to a live user. Implemented by
// the session service.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.User, *auth.AccessClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user on the request context.
func RequireAuth(authenticator Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondError(w, r, log, auth.ErrInvalidCredentials)
				return
			}
			user, _, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// RequireVerified gates routes on a verified email. Applied to every
// protected route except resending the verification email.
func RequireVerified(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respondError(w, r, log, auth.ErrInvalidCredentials)
				return
			}
			if !user.IsEmailVerified {
				respondError(w, r, log, auth.ErrEmailNotVerified)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates routes on the admin role.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respondError(w, r, log, auth.ErrInvalidCredentials)
				return
			}
			if !user.IsAdmin() {
				respondError(w, r, log, auth.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user set by RequireAuth.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	user, ok := ctx.Value(userContextKey).(*auth.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
