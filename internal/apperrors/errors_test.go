package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("%w: operation 42", ErrNotFound)
	err := NewAppError(500, "failed to load operation", cause)

	assert.True(t, errors.Is(err, ErrNotFound), "AppError should unwrap to its cause")
	assert.Contains(t, err.Error(), "failed to load operation")
	assert.Contains(t, err.Error(), "operation 42")
	assert.False(t, IsRetryable(err))
}

func TestRetryableError(t *testing.T) {
	err := fmt.Errorf("conclude: %w", NewRetryableError("failed to create posting", errors.New("connection reset")))

	assert.True(t, IsRetryable(err), "retryable flag should survive wrapping")

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, 503, appErr.Code)
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError(400, "bad input", nil)
	assert.Equal(t, "bad input", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
