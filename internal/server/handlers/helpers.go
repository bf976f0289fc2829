package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wordbase/wordbase/pkg/api"
)

// contextKey is the private type for request-context keys.
type contextKey string

// UserIDKey carries the authenticated user's ID, set by the auth
// middleware.
const UserIDKey contextKey = "user_id"

// GetUserID extracts the authenticated user ID from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func sendJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, api.ErrorResponse{Error: message}, status)
}
