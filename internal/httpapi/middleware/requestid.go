package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rizzchat/server/internal/common"
)

const RequestIDHeader = "X-Request-ID"

// RequestID attaches a ULID to every request that doesn't already carry
// one, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			if generated, err := common.NewULID(); err == nil {
				id = generated
			}
		}
		if id != "" {
			c.Writer.Header().Set(RequestIDHeader, id)
			c.Set("request_id", id)
		}
		c.Next()
	}
}
