package department

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo   repository.DepartmentRepository
	logger zerolog.Logger
}

func NewService(repo repository.DepartmentRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	if existing, _ := s.repo.GetByName(ctx, req.Name); existing != nil {
		return nil, apperrors.Conflict("department name already exists", nil)
	}

	department := &model.Department{Name: req.Name}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, err
	}

	s.logger.Info().Str("department_id", department.ID.String()).Str("name", department.Name).Msg("department created")
	return department, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Department, error) {
	return s.repo.List(ctx)
}
