package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "logger"

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-Id"

// GetLogger returns the request-scoped logger, or the global one outside a
// request handled by RequestLogger.
func GetLogger(r *http.Request) *zap.Logger {
	if r != nil {
		if val, ok := r.Context().Value(loggerKey).(*zap.Logger); ok {
			return val
		}
	}
	return zap.L()
}

// RequestLogger tags every request with an id, stores a logger carrying that
// id in the request context and logs the outcome once the handler returns.
func RequestLogger(logger *zap.Logger) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		e.Response.Header().Set(RequestIDHeader, id)

		log := logger.With(
			zap.String("request_id", id),
			zap.String("method", e.Request.Method),
			zap.String("path", e.Request.URL.Path),
		)
		ctx := context.WithValue(e.Request.Context(), loggerKey, log)
		e.Request = e.Request.WithContext(ctx)

		start := time.Now()
		err := e.Next()
		log.Info("request done",
			zap.Int("status", e.Status()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
}
