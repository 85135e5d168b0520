package service

import (
	"context"
	"errors"

	catalogerrors "venivici/internal/catalog/errors"
	"venivici/internal/catalog/repository"
	"venivici/internal/catalog/validator"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
	"venivici/pkg/model"
	"venivici/pkg/sanitizer"
)

type CatalogService interface {
	Create(ctx context.Context, svc *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context) ([]*model.Service, error)
	Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error)
	Delete(ctx context.Context, id string) error
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validator.ServiceValidator
	log       *logger.Logger
}

func NewCatalogService(repo repository.ServiceRepository, validator *validator.ServiceValidator, log *logger.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

func (s *catalogService) Create(ctx context.Context, svc *model.Service) error {
	Normalize(svc)
	if err := s.validator.Validate(svc); err != nil {
		s.log.Warn("Service validation failed", "name", svc.Name, "error", err)
		return validationError(err)
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return s.translate(err, "", "Failed to create service")
	}

	s.log.Info("Service created", "id", svc.ID, "name", svc.Name)
	return nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve service")
	}
	return svc, nil
}

func (s *catalogService) GetAll(ctx context.Context) ([]*model.Service, error) {
	services, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list services", "error", err)
		return nil, apperrors.Internal("Failed to retrieve services", err)
	}
	return services, nil
}

func (s *catalogService) Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	normalizeUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.log.Warn("Service update validation failed", "id", id, "error", err)
		return nil, validationError(err)
	}

	svc, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, s.translate(err, id, "Failed to update service")
	}

	// bookings keep their own price snapshot, nothing else to propagate
	s.log.Info("Service updated", "id", id)
	return svc, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id, "Failed to delete service")
	}

	s.log.Info("Service deleted", "id", id)
	return nil
}

func (s *catalogService) translate(err error, id, message string) error {
	switch {
	case errors.Is(err, catalogerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Service", id)
	case errors.Is(err, catalogerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid service ID format")
	case errors.Is(err, catalogerrors.ErrDuplicateName):
		return apperrors.Conflict("A service with this name already exists")
	}
	s.log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation("Invalid service input", map[string]any{"fields": errs})
	}
	return apperrors.Validation("Invalid service input", map[string]any{"error": err.Error()})
}

// Normalize trims text fields and fills the default icon. Shared with the seed loader.
func Normalize(svc *model.Service) {
	svc.Name = sanitizer.TrimAndNormalize(svc.Name)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)
	svc.Duration = sanitizer.TrimAndNormalize(svc.Duration)
	svc.IconClass = sanitizer.TrimAndNormalize(svc.IconClass)
	if svc.IconClass == "" {
		svc.IconClass = model.DefaultIconClass
	}
}

func normalizeUpdate(update *model.ServiceUpdate) {
	for _, field := range []*string{update.Name, update.Description, update.Duration, update.IconClass} {
		if field != nil {
			*field = sanitizer.TrimAndNormalize(*field)
		}
	}
}
