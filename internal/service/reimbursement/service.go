package reimbursement

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Policy controls automatic approval of small claims. It is provided at
// construction so the decision logic is testable without touching
// global configuration.
type Policy struct {
	AutoApprove          bool
	AutoApproveThreshold float64
}

type Service struct {
	repo            repository.ReimbursementRepository
	appointmentRepo repository.AppointmentRepository
	policy          Policy
	logger          zerolog.Logger
}

func NewService(repo repository.ReimbursementRepository, appointmentRepo repository.AppointmentRepository, policy Policy, logger zerolog.Logger) *Service {
	return &Service{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		policy:          policy,
		logger:          logger,
	}
}

// Submit files a claim against a completed appointment. One claim per
// appointment: the unique constraint on appointment_id backs the
// duplicate check, so racing submissions still end with a single claim.
func (s *Service) Submit(ctx context.Context, memberID uuid.UUID, req *model.SubmitClaimRequest) (*model.Reimbursement, error) {
	appointment, err := s.appointmentRepo.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.MemberID != memberID {
		return nil, apperrors.Forbidden("you can only claim reimbursement for your own appointments", nil)
	}
	if appointment.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.InvalidInput("reimbursement can only be claimed for completed appointments", nil)
	}
	if existing, err := s.repo.GetByAppointment(ctx, req.AppointmentID); err == nil && existing != nil {
		return nil, apperrors.Conflict("reimbursement already submitted for this appointment", nil)
	}

	status := model.ReimbursementStatusPending
	if s.policy.AutoApprove && req.Amount <= s.policy.AutoApproveThreshold {
		status = model.ReimbursementStatusApproved
	}

	claim := &model.Reimbursement{
		MemberID:      memberID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Description:   req.Description,
		ReceiptURL:    req.ReceiptURL,
		Status:        status,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reimbursement_id", claim.ID.String()).
		Str("appointment_id", req.AppointmentID.String()).
		Float64("amount", req.Amount).
		Str("status", string(status)).
		Msg("reimbursement submitted")
	return claim, nil
}

// Review settles a pending claim. The PENDING guard lives in the
// repository update so two reviewers racing on the same claim cannot
// both succeed.
func (s *Service) Review(ctx context.Context, id uuid.UUID, approve bool, notes *string) (*model.Reimbursement, error) {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.Status != model.ReimbursementStatusPending {
		return nil, apperrors.Conflict("only pending claims can be reviewed", nil)
	}

	status := model.ReimbursementStatusRejected
	if approve {
		status = model.ReimbursementStatusApproved
	}
	if err := s.repo.Review(ctx, id, status, notes); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reimbursement_id", id.String()).
		Str("status", string(status)).
		Msg("reimbursement reviewed")

	claim.Status = status
	claim.AdminNotes = notes
	return claim, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Reimbursement, error) {
	claim, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester.Role == model.RoleMember && claim.MemberID != requester.UserID {
		return nil, apperrors.Forbidden("you can only view your own claims", nil)
	}
	return claim, nil
}

func (s *Service) ListMine(ctx context.Context, memberID uuid.UUID) ([]*model.Reimbursement, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Reimbursement, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListPending(ctx context.Context) ([]*model.Reimbursement, error) {
	return s.repo.ListByStatus(ctx, model.ReimbursementStatusPending)
}
