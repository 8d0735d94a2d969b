package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/service"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/response"
)

type attendanceService interface {
	Roster(ctx context.Context, session *models.Session, date string) (*service.RosterView, error)
	Mark(ctx context.Context, session *models.Session, req dto.MarkAttendanceRequest) (*models.RosterRow, error)
	BulkCreate(ctx context.Context, session *models.Session, req dto.BulkAttendanceRequest) (*models.BulkResult, error)
	NotificationState(req dto.NotificationRequest) (*dto.NotificationStatus, error)
	ResendNotification(ctx context.Context, session *models.Session, req dto.NotificationRequest) (*dto.NotificationStatus, error)
}

// AttendanceHandler exposes the daily roster.
type AttendanceHandler struct {
	service attendanceService
	now     func() time.Time
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, now: time.Now}
}

// Roster godoc
// @Summary Attendance roster for a date
// @Description Residents without a record on the date appear as NOT_MARKED
// @Tags Attendance
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	date := c.DefaultQuery("date", h.now().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "date must be YYYY-MM-DD"))
		return
	}
	view, err := h.service.Roster(c.Request.Context(), session, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Mark godoc
// @Summary Mark one resident
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/roster/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	row, err := h.service.Mark(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Bulk godoc
// @Summary Create records for every unmarked resident
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.BulkAttendanceRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/roster/bulk [post]
func (h *AttendanceHandler) Bulk(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	result, err := h.service.BulkCreate(c.Request.Context(), session, req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// NotificationState godoc
// @Summary Absence notification state
// @Tags Attendance
// @Produce json
// @Param studentId query string false "Student ID"
// @Param key query string false "Row key"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/notifications [get]
func (h *AttendanceHandler) NotificationState(c *gin.Context) {
	var req dto.NotificationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification query"))
		return
	}
	status, err := h.service.NotificationState(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// ResendNotification godoc
// @Summary Resend an absence notification
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.NotificationRequest true "Notification target"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance/notifications/resend [post]
func (h *AttendanceHandler) ResendNotification(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notification payload"))
		return
	}
	status, err := h.service.ResendNotification(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, status, nil)
}
