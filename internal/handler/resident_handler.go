package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/noah-isme/hostel-console-api/internal/middleware"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/service"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

type residentDirectory interface {
	List(ctx context.Context, session *models.Session, includeDrafts bool) (*service.ResidentView, error)
	Refresh(ctx context.Context, session *models.Session) (*service.ResidentView, error)
}

// ResidentHandler exposes the shared resident directory.
type ResidentHandler struct {
	directory residentDirectory
}

// NewResidentHandler constructs a resident handler.
func NewResidentHandler(directory residentDirectory) *ResidentHandler {
	return &ResidentHandler{directory: directory}
}

// List godoc
// @Summary List residents
// @Description Active residents; includeDrafts adds students without an allocation
// @Tags Residents
// @Produce json
// @Param includeDrafts query bool false "Include unallocated students"
// @Success 200 {object} response.Envelope
// @Router /residents [get]
func (h *ResidentHandler) List(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.directory.List(c.Request.Context(), session, cast.ToBool(c.Query("includeDrafts")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.Cached)
	respondView(c, view.Residents, view.DegradedSources)
}

// Refresh godoc
// @Summary Reload residents
// @Description Drops the cached directory and reloads it from upstream
// @Tags Residents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /residents/refresh [post]
func (h *ResidentHandler) Refresh(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.directory.Refresh(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	respondView(c, view.Residents, view.DegradedSources)
}
