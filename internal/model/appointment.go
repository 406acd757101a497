package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is created only through booking and never deleted, only
// transitioned. Date and times are copied from the availability at
// booking time so later slot edits cannot change a booked appointment.
type Appointment struct {
	Base
	MemberID       uuid.UUID         `json:"member_id" db:"member_id"`
	DoctorID       uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	AvailabilityID uuid.UUID         `json:"availability_id" db:"availability_id"`
	Date           time.Time         `json:"date" db:"date"`
	StartTime      time.Time         `json:"start_time" db:"start_time"`
	EndTime        time.Time         `json:"end_time" db:"end_time"`
	Status         AppointmentStatus `json:"status" db:"status"`
}

type BookAppointmentRequest struct {
	AvailabilityID uuid.UUID `json:"availability_id" binding:"required"`
}
