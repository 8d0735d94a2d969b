package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/service"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

type feeService interface {
	List(ctx context.Context, session *models.Session) (*service.FeeView, error)
	Preview(req dto.FeePreviewRequest) (*models.FeeRow, error)
	Save(ctx context.Context, session *models.Session, key string, req dto.FeeEditRequest) (*models.FeeRow, error)
}

type feeExporter interface {
	ExportFees(ctx context.Context, session *models.Session, format string) (*service.ExportFile, error)
}

// FeeHandler exposes the merged fee view.
type FeeHandler struct {
	fees     feeService
	exporter feeExporter
}

// NewFeeHandler constructs a fee handler.
func NewFeeHandler(fees feeService, exporter feeExporter) *FeeHandler {
	return &FeeHandler{fees: fees, exporter: exporter}
}

// List godoc
// @Summary List fee rows
// @Description Fees merged with active allocations; allocations without a fee appear as new rows
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.fees.List(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondView(c, view.Rows, view.DegradedSources)
}

// Preview godoc
// @Summary Preview fee due amount and status
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.FeePreviewRequest true "Amounts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/preview [post]
func (h *FeeHandler) Preview(c *gin.Context) {
	var req dto.FeePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	row, err := h.fees.Preview(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Save godoc
// @Summary Save a fee row
// @Description Updates an existing fee or creates one for a new row
// @Tags Fees
// @Accept json
// @Produce json
// @Param key path string true "Row key"
// @Param payload body dto.FeeEditRequest true "Fee edit"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/{key} [put]
func (h *FeeHandler) Save(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.FeeEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee payload"))
		return
	}
	row, err := h.fees.Save(c.Request.Context(), session, c.Param("key"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Export godoc
// @Summary Export fee rows
// @Tags Fees
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /fees/export [get]
func (h *FeeHandler) Export(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	file, err := h.exporter.ExportFees(c.Request.Context(), session, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
