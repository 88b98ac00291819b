package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier between the portal and
	// its callers.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key holding the request ID so the request
	// logger and audit recorder can read it without touching HTTP headers.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware tags every request with an identifier. An inbound
// X-Request-ID (set by a gateway or the portal frontend) is reused unchanged;
// otherwise a fresh UUID v4 is generated. The ID is stored under RequestIDKey
// and echoed back in the response header so members and support staff can
// quote it when reporting a problem.
//
// Register it before the logging and audit middleware so every log line and
// audit row carries the ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
