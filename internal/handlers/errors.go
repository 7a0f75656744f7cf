package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/factor_ops_app/internal/apperrors"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// APIErrorResponse represents a generic error response for API operations
// @Description Generic error response containing a message describing the error
type APIErrorResponse struct {
	// Error contains the error message
	Error string `json:"error" example:"An error occurred"`
	// Retryable is set when the same request may succeed if sent again
	Retryable bool `json:"retryable,omitempty"`
}

// respondError maps service errors onto HTTP statuses. Client errors echo the
// service message; anything unexpected is logged and hidden behind action.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case apperrors.IsRetryable(err):
		logger.Warn(action+" failed, retryable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, APIErrorResponse{Error: action + " did not complete, retry the request", Retryable: true})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(action+" rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn(action+" forbidden", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, APIErrorResponse{Error: "Forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(action+" failed: not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, APIErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn(action+" conflicts with current state", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, APIErrorResponse{Error: err.Error()})
	default:
		logger.Error(action+" failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: action + " failed"})
	}
}

// requireUserID returns the authenticated user, answering 401 when there is none.
func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, APIErrorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}

func bindFailed(c *gin.Context, what string, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "Invalid request format: " + err.Error()})
}
