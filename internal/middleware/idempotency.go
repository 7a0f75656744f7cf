package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/factor_ops_app/internal/cache"
	"github.com/gin-gonic/gin"
)

const (
	// IdempotencyKeyHeader lets clients retry a mutating request safely.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the store.
	IdempotentReplayHeader = "Idempotent-Replayed"
)

// bodyRecorder tees the response body so it can be stored.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST, PUT, PATCH or DELETE
// request that carries an already used Idempotency-Key. Keys are scoped to the
// authenticated user and the route, so it must run after authentication.
// Server errors are not stored; the client may retry them with the same key.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := GetLoggerFromCtx(ctx)
		userID, _ := GetUserIDFromContext(c)
		scopedKey := userID + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		fingerprint := hex.EncodeToString(sum[:])

		stored, err := store.Load(ctx, scopedKey)
		switch {
		case errors.Is(err, cache.ErrInFlight):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is still in progress"})
			return
		case err != nil:
			logger.Error("Failed to load idempotency key", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Idempotency store unavailable", "retryable": true})
			return
		case stored != nil:
			if stored.Fingerprint != fingerprint {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Idempotency-Key was already used with a different request body"})
				return
			}
			logger.Info("Replaying stored response", slog.String("idempotency_key", key))
			c.Header(IdempotentReplayHeader, "true")
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		reserved, err := store.Reserve(ctx, scopedKey, ttl)
		if err != nil {
			logger.Error("Failed to reserve idempotency key", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Idempotency store unavailable", "retryable": true})
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is still in progress"})
			return
		}

		// A panicking handler never stores a response; free the key before
		// Recovery turns the panic into a 500.
		defer func() {
			if rec := recover(); rec != nil {
				if err := store.Release(ctx, scopedKey); err != nil {
					logger.Warn("Failed to release idempotency key", slog.String("error", err.Error()))
				}
				panic(rec)
			}
		}()

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(ctx, scopedKey); err != nil {
				logger.Warn("Failed to release idempotency key", slog.String("error", err.Error()))
			}
			return
		}
		resp := cache.StoredResponse{
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			Fingerprint: fingerprint,
		}
		if err := store.Save(ctx, scopedKey, resp, ttl); err != nil {
			logger.Warn("Failed to store idempotent response", slog.String("error", err.Error()))
		}
	}
}
