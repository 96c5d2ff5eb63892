package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rizzchat/server/internal/auth"
	"github.com/rizzchat/server/internal/common"
)

// UserIDKey is where AuthRequired stores the authenticated user id in the
// gin context.
const UserIDKey = "user_id"

func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		uid, err := auth.ParseJWT(token, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "session expired")
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}

// AdminRequired guards the code-creation endpoint with a static bearer
// token. An empty configured token disables the endpoint entirely.
func AdminRequired(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if adminToken == "" || token != adminToken {
			common.Fail(c, http.StatusUnauthorized, 40103, "admin token required")
			c.Abort()
			return
		}
		c.Next()
	}
}
