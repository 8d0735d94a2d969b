package dto

// FeeEditRequest is an edit of a fee row. Amounts are decimal strings; absent
// amounts keep the row's current value.
type FeeEditRequest struct {
	MonthlyFee      *string `json:"monthlyFee" validate:"omitempty,numeric"`
	TotalFee        *string `json:"totalFee" validate:"omitempty,numeric"`
	AmountPaid      *string `json:"amountPaid" validate:"omitempty,numeric"`
	LastPaymentDate string  `json:"lastPaymentDate" validate:"omitempty,datetime=2006-01-02"`
}

// FeePreviewRequest recomputes a row without persisting it.
type FeePreviewRequest struct {
	TotalFee   string `json:"totalFee" validate:"required,numeric"`
	AmountPaid string `json:"amountPaid" validate:"required,numeric"`
}
