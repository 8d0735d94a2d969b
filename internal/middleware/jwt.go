package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/logger"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the caller's session.
const ContextSessionKey = "session"

// TokenParser decodes a bearer token into a session.
type TokenParser interface {
	ParseToken(token string) (*models.Session, error)
}

// JWT protects routes by requiring a bearer token the upstream services issued.
// The token itself is forwarded upstream on every call.
func JWT(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		session, err := parser.ParseToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.ContextSubjectKey, session.User.Email)
		c.Next()
	}
}

// SessionFromContext returns the session stored by JWT.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}
