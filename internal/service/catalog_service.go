package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/adukenov/uslugi-backend/internal/models"
	"github.com/adukenov/uslugi-backend/internal/pkg/apperror"
	"github.com/adukenov/uslugi-backend/internal/repository"
)

type CatalogRepository interface {
	ListMainServices(ctx context.Context) ([]models.MainService, error)
	ListSubServices(ctx context.Context, mainServiceID *uuid.UUID) ([]models.SubService, error)
	GetSubServiceByID(ctx context.Context, id uuid.UUID) (*models.SubService, error)
	ListSpecialistSubServiceIDs(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error)
	HasCapability(ctx context.Context, specialistID, subServiceID uuid.UUID) (bool, error)
	ReplaceSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error
}

// CatalogService предоставляет справочник услуг и управление профилем
// специалиста (набор подуслуг, которые он выполняет).
type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListMainServices возвращает категории верхнего уровня.
func (s *CatalogService) ListMainServices(ctx context.Context) ([]models.MainService, error) {
	return s.repo.ListMainServices(ctx)
}

// ListSubServices возвращает подуслуги, опционально в рамках одной категории.
func (s *CatalogService) ListSubServices(ctx context.Context, mainServiceID *uuid.UUID) ([]models.SubService, error) {
	return s.repo.ListSubServices(ctx, mainServiceID)
}

// GetSubService возвращает подуслугу по id.
func (s *CatalogService) GetSubService(ctx context.Context, id uuid.UUID) (*models.SubService, error) {
	sub, err := s.repo.GetSubServiceByID(ctx, id)
	if errors.Is(err, repository.ErrSubServiceNotFound) {
		return nil, apperror.ErrSubServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSpecialistSubServices возвращает подуслуги, закреплённые за специалистом.
func (s *CatalogService) ListSpecialistSubServices(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListSpecialistSubServiceIDs(ctx, specialistID)
}

// SetSpecialistSubServices заменяет набор подуслуг специалиста целиком.
func (s *CatalogService) SetSpecialistSubServices(ctx context.Context, specialistID uuid.UUID, subServiceIDs []uuid.UUID) error {
	if len(subServiceIDs) == 0 {
		return apperror.New(apperror.ErrCodeValidation, "список подуслуг не может быть пустым")
	}
	err := s.repo.ReplaceSpecialistSubServices(ctx, specialistID, subServiceIDs)
	if errors.Is(err, repository.ErrSubServiceNotFound) {
		return apperror.ErrSubServiceNotFound
	}
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить профиль специалиста")
	}
	return nil
}
