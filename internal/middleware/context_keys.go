package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// contextKey is the type of the keys this package stores in request contexts.
// Using a custom type prevents collisions.
type contextKey string

const (
	// userIDKey holds the authenticated user's ID.
	userIDKey = contextKey("userID")
	// loggerCtxKey holds the request-scoped *slog.Logger.
	loggerCtxKey = contextKey("logger")
	// authMethodKey records which middleware authenticated the request.
	authMethodKey = contextKey("authMethod")
)

const (
	authMethodJWT      = "jwt"
	authMethodAPIToken = "api_token"
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	return GetUserIDFromCtx(c.Request.Context())
}

// GetUserIDFromCtx retrieves the authenticated user ID from a standard context.
func GetUserIDFromCtx(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetLoggerFromCtx retrieves the request-scoped logger from a standard context.
// It falls back to slog.Default so callers outside a request still get a logger.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// withAuthenticatedUser stores the user and an enriched logger in the request context.
func withAuthenticatedUser(c *gin.Context, userID, method string) {
	ctx := c.Request.Context()
	logger := GetLoggerFromCtx(ctx).With(slog.String("user_id", userID))
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, authMethodKey, method)
	ctx = WithLogger(ctx, logger)
	c.Request = c.Request.WithContext(ctx)
}

func authMethodFromCtx(ctx context.Context) (string, bool) {
	method, ok := ctx.Value(authMethodKey).(string)
	return method, ok
}
