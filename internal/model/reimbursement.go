package model

import "github.com/google/uuid"

type ReimbursementStatus string

const (
	ReimbursementStatusPending  ReimbursementStatus = "PENDING"
	ReimbursementStatusApproved ReimbursementStatus = "APPROVED"
	ReimbursementStatusRejected ReimbursementStatus = "REJECTED"
)

// Reimbursement is a claim against a completed appointment. APPROVED
// and REJECTED are terminal.
type Reimbursement struct {
	Base
	MemberID      uuid.UUID           `json:"member_id" db:"member_id"`
	AppointmentID uuid.UUID           `json:"appointment_id" db:"appointment_id"`
	Amount        float64             `json:"amount" db:"amount"`
	Description   *string             `json:"description,omitempty" db:"description"`
	ReceiptURL    string              `json:"receipt_url" db:"receipt_url"`
	Status        ReimbursementStatus `json:"status" db:"status"`
	AdminNotes    *string             `json:"admin_notes,omitempty" db:"admin_notes"`
}

type SubmitClaimRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	ReceiptURL    string    `json:"receipt_url" binding:"required,max=500"`
	Description   *string   `json:"description" binding:"omitempty,max=500"`
}

type ReviewClaimRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}
