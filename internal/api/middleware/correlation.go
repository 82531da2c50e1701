package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-ID"

// CorrelationMiddleware tags every request with a correlation ID so log
// lines from one request can be tied together. A client-supplied header
// wins; otherwise a fresh UUID is generated. The ID is echoed back on the
// response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(correlationHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set("correlation_id", correlationID)
		c.Header(correlationHeader, correlationID)

		c.Next()
	}
}
