package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles user account storage
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	}

	DepartmentRepository interface {
		Create(ctx context.Context, department *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		GetByName(ctx context.Context, name string) (*model.Department, error)
		List(ctx context.Context) ([]*model.Department, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
		AssignDepartment(ctx context.Context, doctorID, departmentID uuid.UUID) error
		LinkUser(ctx context.Context, doctorID, userID uuid.UUID) error
	}

	// AvailabilityRepository stores bookable slots. The booked flag is
	// mutated only through AppointmentRepository's transactional
	// operations; this interface covers everything else.
	AvailabilityRepository interface {
		Create(ctx context.Context, slot *model.Availability) error
		Get(ctx context.Context, id uuid.UUID) (*model.Availability, error)
		Delete(ctx context.Context, id uuid.UUID) error
		HasOverlap(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time) (bool, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, freeOnly bool) ([]*model.Availability, error)
		ListAll(ctx context.Context) ([]*model.Availability, error)
	}

	// AppointmentRepository stores appointments and owns the two
	// transactional slot operations. BookSlot locks the availability
	// row, checks the booked flag, inserts the appointment and flips
	// the flag as one atomic unit. CancelAndRelease flips the
	// appointment to CANCELLED and frees the slot in one transaction.
	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		ListAll(ctx context.Context) ([]*model.Appointment, error)
		BookSlot(ctx context.Context, availabilityID, memberID uuid.UUID) (*model.Appointment, error)
		CancelAndRelease(ctx context.Context, id uuid.UUID) error
		Complete(ctx context.Context, id uuid.UUID) error
	}

	ReimbursementRepository interface {
		Create(ctx context.Context, claim *model.Reimbursement) error
		Get(ctx context.Context, id uuid.UUID) (*model.Reimbursement, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Reimbursement, error)
		ListByMember(ctx context.Context, memberID uuid.UUID) ([]*model.Reimbursement, error)
		ListByStatus(ctx context.Context, status model.ReimbursementStatus) ([]*model.Reimbursement, error)
		ListAll(ctx context.Context) ([]*model.Reimbursement, error)
		Review(ctx context.Context, id uuid.UUID, status model.ReimbursementStatus, notes *string) error
	}
)
