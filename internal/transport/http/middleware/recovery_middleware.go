package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/bravo68web/ghcrm/pkg/logger"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	// Logger is the logger instance to use
	Logger *logger.Logger

	// EnableStackTrace determines if stack traces should be logged
	EnableStackTrace bool

	// StackTraceSize is the maximum size of stack trace to capture
	StackTraceSize int
}

// DefaultRecoveryConfig returns a default recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		EnableStackTrace: true,
		StackTraceSize:   4096,
	}
}

// RecoveryMiddleware returns a Gin middleware for panic recovery with logging
func RecoveryMiddleware() gin.HandlerFunc {
	return RecoveryMiddlewareWithConfig(DefaultRecoveryConfig())
}

// RecoveryMiddlewareWithConfig turns a panic into a JSON 500. The stack trace
// only goes to the log.
func RecoveryMiddlewareWithConfig(cfg *RecoveryConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultRecoveryConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			log := cfg.Logger
			if log == nil {
				log = logger.Get()
			}

			requestID := GetRequestID(c)
			fields := []logger.Field{
				logger.Any("panic", recovered),
				logger.Method(c.Request.Method),
				logger.Path(c.Request.URL.Path),
				logger.ClientIP(c.ClientIP()),
			}
			if requestID != "" {
				fields = append(fields, logger.RequestID(requestID))
			}

			span := trace.SpanFromContext(c.Request.Context())
			if span.SpanContext().IsValid() {
				fields = append(fields,
					logger.TraceID(span.SpanContext().TraceID().String()),
					logger.SpanID(span.SpanContext().SpanID().String()),
				)
			}

			if cfg.EnableStackTrace {
				stack := debug.Stack()
				if cfg.StackTraceSize > 0 && len(stack) > cfg.StackTraceSize {
					stack = stack[:cfg.StackTraceSize]
				}
				fields = append(fields, logger.ByteString("stacktrace", stack))
			}

			log.Error("Panic recovered", fields...)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "an internal error occurred",
			})
		}()

		c.Next()
	}
}

// RecoveryMiddlewareWithLogger returns a panic recovery middleware with a specific logger
func RecoveryMiddlewareWithLogger(log *logger.Logger) gin.HandlerFunc {
	return RecoveryMiddlewareWithConfig(&RecoveryConfig{
		Logger:           log,
		EnableStackTrace: true,
		StackTraceSize:   4096,
	})
}
