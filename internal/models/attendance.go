package models

// AttendanceStatus is the roster state of a student for one date.
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "PRESENT"
	AttendanceAbsent    AttendanceStatus = "ABSENT"
	AttendanceNotMarked AttendanceStatus = "NOT_MARKED"
)

// Valid reports whether the status can be persisted upstream.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Notification delivery states shown next to absent students.
const (
	NotificationSending   = "Sending..."
	NotificationDelivered = "Delivered"
	NotificationFailed    = "Failed"
)

// RosterRow is one student's attendance for the selected date.
type RosterRow struct {
	Key          string           `json:"key"`
	AttendanceID string           `json:"attendance_id,omitempty"`
	StudentID    string           `json:"student_id,omitempty"`
	StudentName  string           `json:"student_name"`
	RoomNumber   string           `json:"room_number,omitempty"`
	HostelName   string           `json:"hostel_name"`
	Date         string           `json:"date"`
	Status       AttendanceStatus `json:"status"`
	Remarks      string           `json:"remarks,omitempty"`
	Notification string           `json:"notification,omitempty"`
	IsDraft      bool             `json:"is_draft"`
}

// BulkFailure records why one entity in a bulk operation was not persisted.
type BulkFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// BulkResult summarises a bulk materialization.
type BulkResult struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}
