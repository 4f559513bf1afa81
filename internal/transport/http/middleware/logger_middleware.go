package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/bravo68web/ghcrm/internal/observability"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// LoggerConfig holds configuration for the logging middleware
type LoggerConfig struct {
	// Logger is the logger instance to use
	Logger *logger.Logger

	// SkipPaths are paths that are neither logged nor measured
	SkipPaths []string

	// SkipPathPrefixes are path prefixes that are neither logged nor measured
	SkipPathPrefixes []string

	// TraceIDHeader is the header name for trace ID (for external trace propagation)
	TraceIDHeader string

	// RequestIDHeader is the header name for request ID
	RequestIDHeader string

	// IncludeHeaders determines if request headers should be logged
	IncludeHeaders bool

	// SensitiveHeaders are headers that should be redacted
	SensitiveHeaders []string
}

// DefaultLoggerConfig returns a default middleware configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Logger:           nil, // Will use global logger
		SkipPaths:        []string{"/healthz", "/readyz", "/metrics"},
		TraceIDHeader:    "X-Trace-ID",
		RequestIDHeader:  "X-Request-ID",
		SensitiveHeaders: []string{"Authorization", "Cookie", "Set-Cookie"},
	}
}

// LoggerMiddleware returns a Gin middleware for logging HTTP requests
func LoggerMiddleware() gin.HandlerFunc {
	return LoggerMiddlewareWithConfig(DefaultLoggerConfig())
}

// LoggerMiddlewareWithConfig returns a Gin middleware with custom configuration.
// Besides the access log it records the request in the HTTP metrics.
func LoggerMiddlewareWithConfig(cfg *LoggerConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	skipPaths := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	sensitiveHeaders := make(map[string]struct{}, len(cfg.SensitiveHeaders))
	for _, header := range cfg.SensitiveHeaders {
		sensitiveHeaders[header] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skipPaths[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		log := cfg.Logger
		if log == nil {
			log = logger.Get()
		}

		start := time.Now()

		requestID := c.GetHeader(cfg.RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header(cfg.RequestIDHeader, requestID)

		traceID := c.GetHeader(cfg.TraceIDHeader)
		spanID := ""
		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
			spanID = span.SpanContext().SpanID().String()
		}
		if traceID != "" {
			c.Header(cfg.TraceIDHeader, traceID)
		}

		c.Set("request_id", requestID)
		if traceID != "" {
			c.Set("trace_id", traceID)
		}
		if spanID != "" {
			c.Set("span_id", spanID)
		}

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		// Unmatched routes share one label so arbitrary paths cannot blow up cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(c.Request.Method, route, statusCode, latency)

		fields := []logger.Field{
			logger.RequestID(requestID),
			logger.Method(c.Request.Method),
			logger.Path(path),
			logger.Route(route),
			logger.Query(c.Request.URL.RawQuery),
			logger.StatusCode(statusCode),
			logger.Latency(latency),
			logger.ClientIP(c.ClientIP()),
			logger.UserAgent(c.Request.UserAgent()),
			logger.BodySize(c.Writer.Size()),
		}

		if traceID != "" {
			fields = append(fields, logger.TraceID(traceID))
		}
		if spanID != "" {
			fields = append(fields, logger.SpanID(spanID))
		}
		if referer := c.Request.Referer(); referer != "" {
			fields = append(fields, logger.Referer(referer))
		}
		if user := GetUserFromContext(c); user != nil {
			fields = append(fields, logger.UserID(user.ID))
		}

		if cfg.IncludeHeaders {
			headers := make(map[string]string)
			for key, values := range c.Request.Header {
				if _, sensitive := sensitiveHeaders[key]; sensitive {
					headers[key] = "[REDACTED]"
				} else if len(values) > 0 {
					headers[key] = values[0]
				}
			}
			fields = append(fields, logger.Any("headers", headers))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
		}

		msg := "HTTP Request"
		switch {
		case statusCode >= 500:
			log.Error(msg, fields...)
		case statusCode >= 400:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}

func generateRequestID() string {
	return uuid.NewString()
}

// GetRequestID retrieves the request ID from the gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// GetTraceID retrieves the trace ID from the gin context
func GetTraceID(c *gin.Context) string {
	return c.GetString("trace_id")
}
