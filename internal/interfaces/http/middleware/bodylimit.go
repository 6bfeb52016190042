package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketscout/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes bounds search and override request bodies
const DefaultMaxBodyBytes int64 = 64 << 10

// BodyLimit rejects declared oversize bodies up front and caps streamed ones
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", c.GetString("request_id")))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
