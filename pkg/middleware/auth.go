package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// TokenValidator validates an access token and returns the authenticated
// user's id. The service injects its own verification logic.
type TokenValidator func(token string) (string, error)

// Auth validates the bearer token on every request and injects the user id
// into the request context. Missing header, malformed header, and invalid or
// expired tokens all produce the same generic 401 body; the cases are kept
// apart in logs only.
func Auth(validate TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.DebugContext(r.Context(), "missing authorization header",
					slog.String("path", r.URL.Path))
				writeUnauthorized(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				l.DebugContext(r.Context(), "malformed authorization header",
					slog.String("path", r.URL.Path))
				writeUnauthorized(w)
				return
			}

			userID, err := validate(parts[1])
			if err != nil {
				l.DebugContext(r.Context(), "access token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user id from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": "UNAUTHORIZED"})
}
