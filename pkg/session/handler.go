package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apihttp "github.com/shoppermo/shoppermo-server/pkg/http"
)

const (
	msgUnauthorized   = "Unauthorized"
	msgInvalidSession = "Invalid or expired session"
	msgExpiredSession = "Session expired"
	msgSessionError   = "Session lookup failed"
)

// contextKey carries the resolved session for payload type T. Distinct
// payload types produce distinct keys, so admin and merchant sessions never
// alias in a request context.
type contextKey[T any] struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession[T any](ctx context.Context, sess *Session[T]) context.Context {
	return context.WithValue(ctx, contextKey[T]{}, sess)
}

// FromContext returns the session placed by RequireSession, or nil.
func FromContext[T any](ctx context.Context) *Session[T] {
	sess, _ := ctx.Value(contextKey[T]{}).(*Session[T])
	return sess
}

// RequireSession creates middleware that resolves the bearer token against
// auth. A missing or malformed header is rejected before lookup; unknown and
// expired tokens are both 401 with different messages.
func RequireSession[T any](auth Authority[T]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := apihttp.BearerToken(r)
			if !ok {
				apihttp.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			sess, err := auth.Validate(r.Context(), token)
			switch {
			case errors.Is(err, ErrNoSession):
				slog.Debug("session: rejected", "reason", "no such session", "path", r.URL.Path)
				apihttp.WriteError(w, http.StatusUnauthorized, msgInvalidSession)
				return
			case errors.Is(err, ErrExpired):
				slog.Debug("session: rejected", "reason", "expired", "path", r.URL.Path)
				apihttp.WriteError(w, http.StatusUnauthorized, msgExpiredSession)
				return
			case err != nil:
				slog.Error("session: validate failed", "error", err)
				apihttp.WriteError(w, http.StatusInternalServerError, msgSessionError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
