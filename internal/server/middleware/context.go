// Package middleware provides HTTP authentication middleware and the request
// identity context.
package middleware

import "context"

type contextKey struct{ name string }

var (
	userIDKey = contextKey{"user_id"}
	orgIDKey  = contextKey{"org_id"}
)

// WithIdentity returns a context with user_id and org_id set. Handlers read
// these via GetUserID and GetOrgID.
func WithIdentity(ctx context.Context, userID, orgID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, orgIDKey, orgID)
	return ctx
}

// GetUserID returns the user_id from context and true if set.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetOrgID returns the org_id from context and true if set.
func GetOrgID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(orgIDKey).(string)
	return v, ok
}
