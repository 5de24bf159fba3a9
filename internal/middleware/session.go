package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/marriage-appointment-client/internal/models"
	appErrors "github.com/noah-isme/marriage-appointment-client/pkg/errors"
	"github.com/noah-isme/marriage-appointment-client/pkg/response"
)

// ContextSubjectKey is the gin context key storing the session subject.
const ContextSubjectKey = "currentSubject"

type sessionReader interface {
	Session() models.Session
}

// RequireSession protects routes that need a signed-in subject.
func RequireSession(sessions sessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Session()
		if !session.Active() {
			response.Error(c, appErrors.Clone(appErrors.ErrNoSession, "sign in first"))
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, session.Subject)
		c.Next()
	}
}

// CurrentSubject returns the subject attached by RequireSession.
func CurrentSubject(c *gin.Context) *models.Subject {
	value, exists := c.Get(ContextSubjectKey)
	if !exists {
		return nil
	}
	subject, _ := value.(*models.Subject)
	return subject
}
