package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/shopgrid/server/internal/auth"
	"github.com/shopgrid/server/internal/model"
	"github.com/shopgrid/server/internal/repo"
)

type contextKey string

const (
	userKey      contextKey = "user"
	sessionIDKey contextKey = "session_id"
)

// AuthMiddleware validates bearer tokens, loads the user from the DB, and
// attaches the user and device session id to the request context. An expired
// token, a bad signature, and a valid token referencing a missing user are all
// unauthorized to the caller; they are logged distinctly.
func AuthMiddleware(tokens *auth.TokenService, users repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondUnauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondUnauthorized(w, "Invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				respondUnauthorized(w, "Missing token")
				return
			}

			claims, err := tokens.Decode(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					log.Printf("auth: expired token presented")
				} else {
					log.Printf("auth: invalid token presented")
				}
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				// Token valid but user missing: unauthorized, not a server error.
				respondUnauthorized(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			if sessionID, err := claims.DeviceSessionID(); err == nil {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the user attached to the request context (set by AuthMiddleware)
func GetUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// GetSessionID extracts the device session id from context
func GetSessionID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(sessionIDKey).(int64)
	return id, ok
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}
