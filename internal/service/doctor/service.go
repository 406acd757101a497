package doctor

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo           repository.DoctorRepository
	userRepo       repository.UserRepository
	departmentRepo repository.DepartmentRepository
	logger         zerolog.Logger
}

func NewService(repo repository.DoctorRepository, userRepo repository.UserRepository, departmentRepo repository.DepartmentRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		userRepo:       userRepo,
		departmentRepo: departmentRepo,
		logger:         logger,
	}
}

// Create adds a doctor profile. When a user id is given the profile is
// created pre-linked; the user must carry the DOCTOR role and not be
// linked to any other profile.
func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if req.UserID != nil {
		if err := s.validateLinkTarget(ctx, *req.UserID); err != nil {
			return nil, err
		}
	}

	doctor := &model.Doctor{
		Name:   req.Name,
		Email:  req.Email,
		UserID: req.UserID,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, err
	}

	s.logger.Info().Str("doctor_id", doctor.ID.String()).Str("name", doctor.Name).Msg("doctor created")
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	return s.repo.List(ctx)
}

func (s *Service) AssignDepartment(ctx context.Context, doctorID, departmentID uuid.UUID) (*model.Doctor, error) {
	if _, err := s.repo.Get(ctx, doctorID); err != nil {
		return nil, err
	}
	if _, err := s.departmentRepo.Get(ctx, departmentID); err != nil {
		return nil, err
	}

	if err := s.repo.AssignDepartment(ctx, doctorID, departmentID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("department_id", departmentID.String()).
		Msg("doctor assigned to department")

	return s.repo.Get(ctx, doctorID)
}

// LinkUser claims a doctor profile for a user account. Both sides of
// the link are one-to-one: a profile has at most one user and a user at
// most one profile.
func (s *Service) LinkUser(ctx context.Context, doctorID, userID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.UserID != nil {
		return nil, apperrors.Conflict("doctor is already linked to a user account", nil)
	}

	if err := s.validateLinkTarget(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.repo.LinkUser(ctx, doctorID, userID); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("user_id", userID.String()).
		Msg("doctor linked to user")

	return s.repo.Get(ctx, doctorID)
}

func (s *Service) validateLinkTarget(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != model.RoleDoctor {
		return apperrors.InvalidInput("user must have DOCTOR role to be linked", nil)
	}
	if existing, _ := s.repo.GetByUserID(ctx, userID); existing != nil {
		return apperrors.Conflict("user is already linked to a doctor profile", nil)
	}
	return nil
}
