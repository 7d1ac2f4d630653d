package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key the trace id is stored under.
	TraceIDKey = "trace_id"
	// TraceIDHeader carries the trace id on requests and responses.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID tags every request with a trace id. An id supplied by the client
// is kept so a caller can correlate across services; otherwise a fresh UUID
// is generated. The id is echoed back in the response header.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" when the TraceID
// middleware did not run.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
