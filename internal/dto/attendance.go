package dto

import "github.com/noah-isme/hostel-console-api/internal/models"

// MarkAttendanceRequest marks one roster row. Key is the row key returned by
// the roster; StudentID is accepted in its place.
type MarkAttendanceRequest struct {
	Key       string                  `json:"key" validate:"required_without=StudentID"`
	StudentID string                  `json:"studentId"`
	Date      string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT"`
	Remarks   *string                 `json:"remarks"`
}

// BulkAttendanceRequest creates a record for every unmarked resident on a date.
type BulkAttendanceRequest struct {
	Date    string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status  models.AttendanceStatus `json:"status" validate:"omitempty,oneof=PRESENT ABSENT"`
	Remarks string                  `json:"remarks"`
}

// NotificationRequest identifies a roster row's notification.
type NotificationRequest struct {
	Key       string `json:"key" form:"key" validate:"required_without=StudentID"`
	StudentID string `json:"studentId" form:"studentId"`
	Date      string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
}

// RowKey returns the roster key, falling back to the student id.
func (r NotificationRequest) RowKey() string {
	if r.Key != "" {
		return r.Key
	}
	return r.StudentID
}

// NotificationStatus reports the delivery state for one student and date.
type NotificationStatus struct {
	Key   string `json:"key"`
	Date  string `json:"date"`
	State string `json:"state"`
}
