package models

// RoomStatus is derived from occupancy against capacity.
type RoomStatus string

const (
	RoomFull            RoomStatus = "Full"
	RoomAvailable       RoomStatus = "Available"
	RoomPartiallyFilled RoomStatus = "Partially Filled"
)

// RoomRow is one row of the rooms view.
type RoomRow struct {
	ID          string     `json:"id"`
	RoomNumber  string     `json:"room_number"`
	HostelID    string     `json:"hostel_id,omitempty"`
	HostelName  string     `json:"hostel_name"`
	SharingType string     `json:"sharing_type,omitempty"`
	Capacity    int        `json:"capacity"`
	Occupied    int        `json:"occupied"`
	Status      RoomStatus `json:"status"`
}

// DeriveRoomStatus compares occupancy with capacity.
func DeriveRoomStatus(occupied, capacity int) RoomStatus {
	switch {
	case capacity > 0 && occupied >= capacity:
		return RoomFull
	case occupied <= 0:
		return RoomAvailable
	default:
		return RoomPartiallyFilled
	}
}
