package dto

// StatusUpdateRequest is a partial update of status and remarks.
type StatusUpdateRequest struct {
	Status  string  `json:"status" validate:"required"`
	Remarks *string `json:"remarks"`
}
