package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/service"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

type roomService interface {
	List(ctx context.Context, session *models.Session) (*service.RoomView, error)
}

// RoomHandler exposes the rooms table.
type RoomHandler struct {
	service roomService
}

// NewRoomHandler constructs a room handler.
func NewRoomHandler(svc roomService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// List godoc
// @Summary List rooms
// @Description Rooms with inferred capacity, live occupancy and derived status, in natural room-number order
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.service.List(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondView(c, view.Rooms, view.DegradedSources)
}
