package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketscout/backend/internal/interfaces/http/dto"
)

// AdminTokenHeader carries the admin token
const AdminTokenHeader = "X-Admin-Token"

// AdminToken guards administrative routes with a shared token.
// An empty token disables the guarded routes entirely.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Administrative endpoints are disabled", c.GetString("request_id")))
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Missing or invalid admin token", c.GetString("request_id")))
			return
		}
		c.Next()
	}
}
