package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
)

// APIKeyMiddleware guards operator-only routes, such as writes to the shared
// category catalog, with the X-API-Key header. An empty key disables them.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnavailable, "Catalog management is not configured"))
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
