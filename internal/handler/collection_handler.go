package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/response"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type collectionService interface {
	List(ctx context.Context, session *models.Session, col upstream.Collection, query url.Values) ([]models.Record, error)
	Get(ctx context.Context, session *models.Session, col upstream.Collection, id string) (models.Record, error)
	Create(ctx context.Context, session *models.Session, col upstream.Collection, body models.Record) (models.Record, error)
	Replace(ctx context.Context, session *models.Session, col upstream.Collection, id string, body models.Record) (models.Record, error)
	UpdateStatus(ctx context.Context, session *models.Session, col upstream.Collection, id string, req dto.StatusUpdateRequest) (models.Record, error)
	Delete(ctx context.Context, session *models.Session, col upstream.Collection, id string) error
}

// CollectionHandler serves one upstream collection (complaints, visits, ...)
// with no reconciliation.
type CollectionHandler struct {
	service    collectionService
	collection upstream.Collection
}

// NewCollectionHandler binds a handler to a collection.
func NewCollectionHandler(svc collectionService, col upstream.Collection) *CollectionHandler {
	return &CollectionHandler{service: svc, collection: col}
}

// Register mounts the collection routes on the group.
func (h *CollectionHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Replace)
	group.PATCH("/:id", h.UpdateStatus)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List collection records
// @Tags Collections
// @Produce json
// @Param collection path string true "complaints, health-incidents, visits, mess-menus or hostels"
// @Success 200 {object} response.Envelope
// @Router /{collection} [get]
func (h *CollectionHandler) List(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	records, err := h.service.List(c.Request.Context(), session, h.collection, c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Get godoc
// @Summary Get a collection record
// @Tags Collections
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /{collection}/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	record, err := h.service.Get(c.Request.Context(), session, h.collection, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Create a collection record
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Param payload body object true "Record"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /{collection} [post]
func (h *CollectionHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	body, ok := bindRecord(c)
	if !ok {
		return
	}
	record, err := h.service.Create(c.Request.Context(), session, h.collection, body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Replace godoc
// @Summary Replace a collection record
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Record ID"
// @Param payload body object true "Record"
// @Success 200 {object} response.Envelope
// @Router /{collection}/{id} [put]
func (h *CollectionHandler) Replace(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	body, ok := bindRecord(c)
	if !ok {
		return
	}
	record, err := h.service.Replace(c.Request.Context(), session, h.collection, c.Param("id"), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus godoc
// @Summary Update status and remarks
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection path string true "Collection"
// @Param id path string true "Record ID"
// @Param payload body dto.StatusUpdateRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /{collection}/{id} [patch]
func (h *CollectionHandler) UpdateStatus(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	record, err := h.service.UpdateStatus(c.Request.Context(), session, h.collection, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a collection record
// @Tags Collections
// @Param collection path string true "Collection"
// @Param id path string true "Record ID"
// @Success 204
// @Router /{collection}/{id} [delete]
func (h *CollectionHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), session, h.collection, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindRecord(c *gin.Context) (models.Record, bool) {
	var body models.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return nil, false
	}
	return body, true
}
