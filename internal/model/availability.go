package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability is a bookable time window for a doctor. The is_booked
// flag is the slot's state machine: false (FREE) or true (BOOKED).
// FREE→BOOKED happens only through booking, BOOKED→FREE only through
// appointment cancellation. Deletion is permitted only while FREE.
type Availability struct {
	Base
	DoctorID  uuid.UUID `json:"doctor_id" db:"doctor_id"`
	Date      time.Time `json:"date" db:"date"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	IsBooked  bool      `json:"is_booked" db:"is_booked"`
}

type CreateAvailabilityRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	Date      string    `json:"date" binding:"required,dateymd"`
	StartTime string    `json:"start_time" binding:"required,timehhmm"`
	EndTime   string    `json:"end_time" binding:"required,timehhmm"`
}
