package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// APIKey protects routes with a static shared secret supplied via the
// X-API-Key header. Authentication and authorization are an external
// collaborator's concern in this deployment — there is no end-user
// session to authenticate — but every mutating route still needs some
// guard against an unauthenticated caller.
func APIKey(header, expected string) gin.HandlerFunc {
	if header == "" {
		header = "X-API-Key"
	}
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		got := c.GetHeader(header)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or invalid "+header+" header"))
			c.Abort()
			return
		}
		c.Next()
	}
}
