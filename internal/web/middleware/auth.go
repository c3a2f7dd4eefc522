package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Karshmistry/CrimAII/internal/auth"
	"github.com/Karshmistry/CrimAII/internal/database"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	userContextKey   contextKey = "user"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup loads users by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*database.User, error)
}

func writeJSON(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth is middleware that requires a valid bearer token and stores
// its subject in the request context.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Missing or invalid token"})
				return
			}

			userID, err := tokens.Verify(token)
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
				return
			case err != nil:
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid token format"})
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserIDInContext(r.Context(), userID)))
		})
	}
}

// RequireAdmin is middleware that loads the authenticated user and rejects
// anyone without the admin role. Must run after RequireAuth.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := users.GetUserByID(r.Context(), UserIDFromContext(r.Context()))
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				slog.Error("loading user for admin check", "error", err)
			}
			if err != nil || !user.IsAdmin() {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id, or "" when absent.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// SetUserIDInContext adds a user id to the context.
// This is primarily for testing - use RequireAuth middleware in production.
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserFromContext returns the user loaded by RequireAdmin, or nil.
func UserFromContext(ctx context.Context) *database.User {
	u, _ := ctx.Value(userContextKey).(*database.User)
	return u
}
