package server

import (
	"context"
	"net/http"
)

type contextKey string

const userIdKey contextKey = "userId"

// RequireUser rejects requests that did not pass through the gateway's
// token verification, which injects the authenticated user's identifier.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId := r.Header.Get("x-user-id")
		if userId == "" {
			renderError(w, r, http.StatusUnauthorized, "Authentication required. Please login to continue.")
			return
		}

		ctx := context.WithValue(r.Context(), userIdKey, userId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserId returns the authenticated user's identifier, or "" when the
// request skipped RequireUser.
func UserId(ctx context.Context) string {
	userId, _ := ctx.Value(userIdKey).(string)
	return userId
}
