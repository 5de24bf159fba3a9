package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

// RequireRoles lets the request through when the subject holds any of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := CurrentSubject(c)
		if subject == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range roles {
			if subject.HasRole(role) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
