package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/cache"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Service struct {
	repo       repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	slots      *cache.SlotCache
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(repo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, slots *cache.SlotCache, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		doctorRepo: doctorRepo,
		slots:      slots,
		metrics:    m,
		logger:     logger,
	}
}

// Book claims an availability slot for a member. All the concurrency
// weight is in the repository: the slot row is locked exclusively for
// the duration of the transaction, so concurrent requests for the same
// slot serialize and exactly one wins. A blocked request that loses the
// race observes the booked flag and fails with a conflict.
func (s *Service) Book(ctx context.Context, availabilityID, memberID uuid.UUID) (*model.Appointment, error) {
	start := time.Now()
	appointment, err := s.repo.BookSlot(ctx, availabilityID, memberID)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrConflict) {
			s.metrics.ObserveBooking(metrics.BookingOutcomeConflict, elapsed)
		} else {
			s.metrics.ObserveBooking(metrics.BookingOutcomeError, elapsed)
		}
		return nil, err
	}

	s.metrics.ObserveBooking(metrics.BookingOutcomeBooked, elapsed)
	s.slots.Invalidate(ctx, appointment.DoctorID)
	s.logger.Info().
		Str("appointment_id", appointment.ID.String()).
		Str("member_id", memberID.String()).
		Str("availability_id", availabilityID.String()).
		Msg("appointment booked")
	return appointment, nil
}

// Cancel transitions an appointment to CANCELLED and frees its slot.
// Members may cancel their own appointments, doctors the appointments
// they are the doctor of record for, admins any. Re-cancelling is
// rejected, not treated as a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Conflict("appointment is already cancelled", nil)
	}

	if err := s.authorize(ctx, appointment, requester, "you can only cancel your own appointments"); err != nil {
		return nil, err
	}

	if err := s.repo.CancelAndRelease(ctx, id); err != nil {
		return nil, err
	}

	s.slots.Invalidate(ctx, appointment.DoctorID)
	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")

	appointment.Status = model.AppointmentStatusCancelled
	return appointment, nil
}

// Complete marks a visit as done. Only the doctor of record or an admin
// may do this, and only from SCHEDULED. Completion is what makes an
// appointment eligible for reimbursement.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if appointment.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict("only scheduled appointments can be completed", nil)
	}

	if requester.Role == model.RoleMember {
		return nil, apperrors.Forbidden("only the doctor or an admin can complete an appointment", nil)
	}
	if err := s.authorize(ctx, appointment, requester, "you can only complete your own appointments"); err != nil {
		return nil, err
	}

	if err := s.repo.Complete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment completed")

	appointment.Status = model.AppointmentStatusCompleted
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, appointment, requester, "you can only view your own appointments"); err != nil {
		return nil, err
	}
	return appointment, nil
}

// List returns the appointments visible to the requester: members see
// their own, doctors the ones they are the doctor of record for, admins
// everything.
func (s *Service) List(ctx context.Context, requester model.Identity) ([]*model.Appointment, error) {
	switch requester.Role {
	case model.RoleMember:
		return s.repo.ListByMember(ctx, requester.UserID)
	case model.RoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, requester.UserID)
		if err != nil {
			return nil, apperrors.NotFound("doctor profile for current user", err)
		}
		return s.repo.ListByDoctor(ctx, doctor.ID)
	default:
		return s.repo.ListAll(ctx)
	}
}

func (s *Service) authorize(ctx context.Context, appointment *model.Appointment, requester model.Identity, denied string) error {
	switch requester.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleMember:
		if appointment.MemberID != requester.UserID {
			return apperrors.Forbidden(denied, nil)
		}
		return nil
	case model.RoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, requester.UserID)
		if err != nil {
			return apperrors.Forbidden(denied, err)
		}
		if appointment.DoctorID != doctor.ID {
			return apperrors.Forbidden(denied, nil)
		}
		return nil
	default:
		return apperrors.Forbidden(denied, nil)
	}
}
