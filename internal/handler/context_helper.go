package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/middleware"
	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

// requireSession returns the caller's session or writes UNAUTHORIZED.
func requireSession(c *gin.Context) (*models.Session, bool) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return session, true
}

func respondView(c *gin.Context, data interface{}, degraded []string) {
	middleware.SetDegradedSources(c, degraded)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
