package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field type alias for convenience
type Field = zap.Field

// String constructs a field with the given key and value
func String(key string, val string) Field {
	return zap.String(key, val)
}

// Int constructs a field with the given key and value
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with the given key and value
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Uint constructs a field with the given key and value
func Uint(key string, val uint) Field {
	return zap.Uint(key, val)
}

// Bool constructs a field with the given key and value
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Duration constructs a field with the given key and value
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Error constructs a field that lazily stores err.Error() under the key "error"
func Error(err error) Field {
	return zap.Error(err)
}

// Strings constructs a field that carries a slice of strings
func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

// ByteString constructs a field that carries UTF-8 encoded text as a []byte
func ByteString(key string, val []byte) Field {
	return zap.ByteString(key, val)
}

// Any takes a key and an arbitrary value and chooses the best way to represent them
func Any(key string, val any) Field {
	return zap.Any(key, val)
}

// HTTP Request related fields

// RequestID constructs a field for request ID
func RequestID(id string) Field {
	return String("request_id", id)
}

// TraceID constructs a field for trace ID (OTEL)
func TraceID(id string) Field {
	return String("trace_id", id)
}

// SpanID constructs a field for span ID (OTEL)
func SpanID(id string) Field {
	return String("span_id", id)
}

// Method constructs a field for HTTP method
func Method(method string) Field {
	return String("method", method)
}

// Path constructs a field for URL path
func Path(path string) Field {
	return String("path", path)
}

// StatusCode constructs a field for HTTP status code
func StatusCode(code int) Field {
	return Int("status_code", code)
}

// Latency constructs a field for request latency
func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

// ClientIP constructs a field for client IP address
func ClientIP(ip string) Field {
	return String("client_ip", ip)
}

// UserAgent constructs a field for user agent
func UserAgent(ua string) Field {
	return String("user_agent", ua)
}

// Query constructs a field for URL query string
func Query(q string) Field {
	return String("query", q)
}

// BodySize constructs a field for response body size
func BodySize(size int) Field {
	return Int("body_size", size)
}

// Referer constructs a field for the HTTP referer
func Referer(ref string) Field {
	return String("referer", ref)
}

// Route constructs a field for the matched route template
func Route(route string) Field {
	return String("route", route)
}

// Component constructs a field for component name
func Component(name string) Field {
	return String("component", name)
}

// Operation constructs a field for operation name
func Operation(name string) Field {
	return String("operation", name)
}

// Environment constructs a field for environment
func Environment(env string) Field {
	return String("environment", env)
}

// Domain fields

// UserID constructs a field for the owning user's id
func UserID(id uint) Field {
	return Uint("user_id", id)
}

// Email constructs a field for an account email
func Email(email string) Field {
	return String("email", email)
}

// RepositoryID constructs a field for a tracked repository id
func RepositoryID(id uint) Field {
	return Uint("repository_id", id)
}

// FullName constructs a field for an owner/repo path
func FullName(name string) Field {
	return String("full_name", name)
}

// SessionID constructs a field for a session key. Only the user-scoped prefix is logged.
func SessionID(id string) Field {
	if len(id) > 12 {
		id = id[:12] + "..."
	}
	return String("session_id", id)
}
