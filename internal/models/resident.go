package models

// ResidentStatus is the enrollment flag carried by allocations.
type ResidentStatus string

const (
	ResidentActive     ResidentStatus = "ACTIVE"
	ResidentCheckedOut ResidentStatus = "CHECKED_OUT"
	ResidentCancelled  ResidentStatus = "CANCELLED"
)

// Resident is one row of the merged resident directory.
type Resident struct {
	Key          string         `json:"key"`
	StudentID    string         `json:"student_id,omitempty"`
	Name         string         `json:"name"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	AllocationID string         `json:"allocation_id,omitempty"`
	RoomID       string         `json:"room_id,omitempty"`
	RoomNumber   string         `json:"room_number,omitempty"`
	HostelID     string         `json:"hostel_id,omitempty"`
	HostelName   string         `json:"hostel_name"`
	Phone        string         `json:"phone,omitempty"`
	ParentPhone  string         `json:"parent_phone,omitempty"`
	Status       ResidentStatus `json:"status"`
	IsDraft      bool           `json:"is_draft"`
}
