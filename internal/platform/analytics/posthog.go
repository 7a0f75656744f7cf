// Package analytics wraps the PostHog client so callers need not care whether it was configured.
package analytics

import (
	"log/slog"

	"github.com/posthog/posthog-go"
)

const defaultEndpoint = "https://eu.i.posthog.com"

// Client sends product analytics events. A zero Client drops everything.
type Client struct {
	posthogClient posthog.Client
	logger        *slog.Logger
}

// NewClient creates a Client for apiKey. An empty key yields a disabled client.
func NewClient(apiKey, endpoint string, logger *slog.Logger) *Client {
	if apiKey == "" {
		logger.Warn("Posthog API key is empty, analytics disabled")
		return &Client{}
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	c, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logger.Error("Failed to initialize posthog client", slog.String("error", err.Error()))
		return &Client{}
	}
	logger.Info("Posthog client initialized", slog.String("endpoint", endpoint))
	return &Client{posthogClient: c, logger: logger}
}

// newClientWith wraps an existing posthog client.
func newClientWith(c posthog.Client, logger *slog.Logger) *Client {
	return &Client{posthogClient: c, logger: logger}
}

// IsInitialized reports whether events are actually sent.
func (c *Client) IsInitialized() bool {
	return c != nil && c.posthogClient != nil
}

// Track enqueues event for distinctID.
func (c *Client) Track(distinctID, event string, properties map[string]any) {
	if !c.IsInitialized() {
		return
	}
	if c.logger != nil {
		c.logger.Debug("Enqueueing event", slog.String("distinct_id", distinctID), slog.String("event", event))
	}
	if err := c.posthogClient.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	}); err != nil && c.logger != nil {
		c.logger.Warn("Failed to enqueue analytics event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// Close flushes pending events.
func (c *Client) Close() {
	if !c.IsInitialized() {
		return
	}
	_ = c.posthogClient.Close()
}
