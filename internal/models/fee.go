package models

import "github.com/shopspring/decimal"

// FeeStatus is the payment state of a fee record.
type FeeStatus string

const (
	FeePaid          FeeStatus = "PAID"
	FeePartiallyPaid FeeStatus = "PARTIALLY_PAID"
	FeeDue           FeeStatus = "DUE"
)

// FeeRow is one row of the merged fee view. IsNew marks a draft that has no
// fee record upstream yet.
type FeeRow struct {
	Key             string          `json:"key"`
	FeeID           string          `json:"fee_id,omitempty"`
	StudentID       string          `json:"student_id,omitempty"`
	StudentName     string          `json:"student_name"`
	RoomNumber      string          `json:"room_number,omitempty"`
	HostelName      string          `json:"hostel_name"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
	TotalFee        decimal.Decimal `json:"total_fee"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	Status          FeeStatus       `json:"status"`
	LastPaymentDate string          `json:"last_payment_date,omitempty"`
	IsNew           bool            `json:"is_new"`
}

// Recalculate enforces due = total - paid and derives the status from it.
func (f *FeeRow) Recalculate() {
	f.DueAmount = f.TotalFee.Sub(f.AmountPaid)
	f.Status = DeriveFeeStatus(f.TotalFee, f.AmountPaid)
}

// DeriveFeeStatus classifies a payment against its total.
func DeriveFeeStatus(total, paid decimal.Decimal) FeeStatus {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return FeePaid
	case paid.IsPositive():
		return FeePartiallyPaid
	default:
		return FeeDue
	}
}
