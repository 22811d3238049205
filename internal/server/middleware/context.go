package middleware

import "context"

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	tokenKey     = contextKey{"token"}
	clientIPKey  = contextKey{"client_ip"}
	requestIDKey = contextKey{"request_id"}
)

// WithIdentity returns a context carrying the authenticated user id and the bearer token it came from.
func WithIdentity(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, tokenKey, token)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// GetToken returns the bearer token from context and true if set; otherwise "", false.
func GetToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok && v != ""
}

// ClientIP returns the client IP recorded by RequestLogger, or "unknown".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// GetRequestID returns the request id recorded by RequestLogger.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
