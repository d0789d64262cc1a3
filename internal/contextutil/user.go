package contextutil

import "context"

const userKey contextKey = "user_id"

// WithUserID returns a context carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the user id from the context.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(userKey).(uint)
	return userID, ok
}
