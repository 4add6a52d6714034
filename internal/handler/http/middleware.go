package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/webitel/im-messaging-service/internal/service"
)

type contextKey int

const userIDKey contextKey = iota

// authMiddleware resolves the bearer token into a user identity and stores
// it on the request context. No token, no API.
func authMiddleware(auther service.Auther) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				respondError(w, service.ErrUnauthenticated)
				return
			}

			userID, err := auther.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, service.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userIDKey).(uuid.UUID)
	return id
}
