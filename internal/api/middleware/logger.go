package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/agentfeed/internal/logger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const loggerKey = "logger"

// LoggerMiddleware returns a Gin middleware that injects a request-scoped logger.
// An incoming X-Request-ID is reused so runs triggered by an upstream caller
// can be correlated with its logs.
// Parameters:
//   - log: base logger to enrich with request fields.
//
// Returns:
//   - gin.HandlerFunc: middleware handler.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := log.WithContext(c.Request.Context())
		ctx = logger.SetRequestID(ctx, requestID)
		ctx = logger.SetComponent(ctx, "api")
		c.Request = c.Request.WithContext(ctx)
		c.Set(loggerKey, logger.FromContext(ctx))
		c.Header(RequestIDHeader, requestID)

		logger.CtxDebug(ctx, "Request started: method=%s, path=%s, client_ip=%s",
			c.Request.Method, c.Request.URL.Path, c.ClientIP())

		c.Next()

		entry := logger.With(logger.Fields{
			logger.FieldSize: c.Writer.Size(),
		}).WithDuration(time.Since(start)).WithField(logger.FieldStatus, c.Writer.Status())

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if len(c.Errors) > 0 {
			entry.Warn(ctx, "Request completed with errors: method=%s, route=%s, errors=%s",
				c.Request.Method, route, c.Errors.String())
			return
		}
		entry.Info(ctx, "Request completed: method=%s, route=%s", c.Request.Method, route)
	}
}

// GetLogger extracts logger from Gin context or request context.
func GetLogger(c *gin.Context) *logger.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context())
}
