package model

import "github.com/google/uuid"

// Doctor is a practitioner profile. It may exist without a linked user
// account (admin managed), or be claimed by exactly one DOCTOR-role user.
type Doctor struct {
	Base
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
}

// IsOwnedBy reports whether this doctor profile belongs to the given user.
func (d *Doctor) IsOwnedBy(userID uuid.UUID) bool {
	return d.UserID != nil && *d.UserID == userID
}

type CreateDoctorRequest struct {
	Name   string     `json:"name" binding:"required,max=100"`
	Email  string     `json:"email" binding:"required,email"`
	UserID *uuid.UUID `json:"user_id"`
}

type AssignDepartmentRequest struct {
	DepartmentID uuid.UUID `json:"department_id" binding:"required"`
}

type LinkUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
