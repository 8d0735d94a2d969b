package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/repository"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter repository.MaterializationAuditFilter) ([]models.MaterializationAudit, error)
}

// AuditHandler lists the materialization audit trail.
type AuditHandler struct {
	repo auditLister
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(repo auditLister) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List materialization audit entries
// @Tags Audit
// @Produce json
// @Param collection query string false "Upstream collection"
// @Param key query string false "Identity key"
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} response.Envelope
// @Router /audit/materializations [get]
func (h *AuditHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}
	entries, err := h.repo.List(c.Request.Context(), repository.MaterializationAuditFilter{
		Collection:  c.Query("collection"),
		IdentityKey: c.Query("key"),
		Limit:       cast.ToInt(c.Query("limit")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
