package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// APITokenHeader carries a machine client's API token.
const APITokenHeader = "x-api-key"

// APITokenAuth authenticates requests that present an API token. Requests without
// the header are left for AuthMiddleware; an invalid token is rejected outright.
func APITokenAuth(tokenSvc services.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := c.GetHeader(APITokenHeader)
		if rawToken == "" {
			c.Next()
			return
		}

		userID, err := tokenSvc.ValidateToken(c.Request.Context(), rawToken)
		if err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("API token rejected", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API token"})
			return
		}

		withAuthenticatedUser(c, userID, authMethodAPIToken)
		c.Next()
	}
}
