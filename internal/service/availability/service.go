package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/cache"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo       repository.AvailabilityRepository
	doctorRepo repository.DoctorRepository
	slots      *cache.SlotCache
	logger     zerolog.Logger
}

func NewService(repo repository.AvailabilityRepository, doctorRepo repository.DoctorRepository, slots *cache.SlotCache, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		doctorRepo: doctorRepo,
		slots:      slots,
		logger:     logger,
	}
}

// Create adds a FREE slot for a doctor. A doctor may only add slots to
// their own profile; admins may add slots for anyone. Overlap against
// the doctor's existing slots on the same date is checked here, at
// creation time only.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, date, start, end time.Time, requester model.Identity) (*model.Availability, error) {
	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if requester.Role == model.RoleDoctor && !doctor.IsOwnedBy(requester.UserID) {
		return nil, apperrors.Forbidden("you can only manage your own availability", nil)
	}

	if !start.Before(end) {
		return nil, apperrors.InvalidInput("start time must be before end time", nil)
	}

	overlaps, err := s.repo.HasOverlap(ctx, doctorID, date, start, end)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperrors.Conflict("this time slot overlaps with an existing availability", nil)
	}

	slot := &model.Availability{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.slots.Invalidate(ctx, doctorID)
	s.logger.Info().
		Str("availability_id", slot.ID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("availability created")
	return slot, nil
}

// Delete removes a slot. Booked slots cannot be deleted; the slot must
// first be freed by cancelling its appointment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, requester model.Identity) error {
	slot, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if slot.IsBooked {
		return apperrors.Conflict("cannot delete a booked slot", nil)
	}

	if requester.Role == model.RoleDoctor {
		doctor, err := s.doctorRepo.Get(ctx, slot.DoctorID)
		if err != nil {
			return err
		}
		if !doctor.IsOwnedBy(requester.UserID) {
			return apperrors.Forbidden("you can only manage your own availability", nil)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.slots.Invalidate(ctx, slot.DoctorID)
	s.logger.Info().Str("availability_id", id.String()).Msg("availability deleted")
	return nil
}

// ListFreeForDoctor returns a doctor's free slots, served from the slot
// cache when warm.
func (s *Service) ListFreeForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	if _, err := s.doctorRepo.Get(ctx, doctorID); err != nil {
		return nil, err
	}

	if slots, ok := s.slots.GetFreeSlots(ctx, doctorID); ok {
		return slots, nil
	}

	slots, err := s.repo.ListByDoctor(ctx, doctorID, true)
	if err != nil {
		return nil, err
	}

	s.slots.SetFreeSlots(ctx, doctorID, slots)
	return slots, nil
}

// ListMine returns all slots, booked included, for the requesting
// doctor's own profile.
func (s *Service) ListMine(ctx context.Context, requester model.Identity) ([]*model.Availability, error) {
	doctor, err := s.doctorRepo.GetByUserID(ctx, requester.UserID)
	if err != nil {
		return nil, apperrors.NotFound("doctor profile for current user", err)
	}
	return s.repo.ListByDoctor(ctx, doctor.ID, false)
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Availability, error) {
	return s.repo.ListAll(ctx)
}
