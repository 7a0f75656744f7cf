package analytics

import (
	"io"
	"log/slog"
	"testing"

	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureClient records enqueued messages.
type captureClient struct {
	posthog.Client
	captured []posthog.Capture
	closed   bool
}

func (c *captureClient) Enqueue(msg posthog.Message) error {
	if capture, ok := msg.(posthog.Capture); ok {
		c.captured = append(c.captured, capture)
	}
	return nil
}

func (c *captureClient) Close() error {
	c.closed = true
	return nil
}

func TestClient_DisabledWithoutKey(t *testing.T) {
	c := NewClient("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, c.IsInitialized())
	assert.NotPanics(t, func() {
		c.Track("user-1", "factor_operation_sent", nil)
		c.Close()
	})
}

func TestClient_NilIsSafe(t *testing.T) {
	var c *Client
	assert.False(t, c.IsInitialized())
	assert.NotPanics(t, func() { c.Track("user-1", "x", nil) })
}

func TestClient_Track(t *testing.T) {
	inner := &captureClient{}
	c := newClientWith(inner, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c.Track("user-1", "factor_operation_concluded", map[string]any{"operation_id": "op-1"})
	c.Close()

	require.Len(t, inner.captured, 1)
	assert.Equal(t, "user-1", inner.captured[0].DistinctId)
	assert.Equal(t, "factor_operation_concluded", inner.captured[0].Event)
	assert.Equal(t, "op-1", inner.captured[0].Properties["operation_id"])
	assert.True(t, inner.closed)
}
