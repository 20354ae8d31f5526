package services

import (
	"context"
	"strings"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
)

type ProviderService interface {
	CreateCategory(ctx context.Context, category *models.ServiceCategory) error
	ListCategories(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error)

	Create(ctx context.Context, provider *models.ServiceProvider) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error)
	Update(ctx context.Context, provider *models.ServiceProvider) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.ProviderFilter) ([]*models.ServiceProvider, error)
}

type providerService struct {
	store repositories.Store
}

func NewProviderService(store repositories.Store) ProviderService {
	return &providerService{store: store}
}

func (s *providerService) CreateCategory(ctx context.Context, category *models.ServiceCategory) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return models.NewValidationError("name", "is required")
	}
	category.ID = uuid.New()
	return s.store.Repos().Categories.Create(ctx, category)
}

func (s *providerService) ListCategories(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error) {
	return s.store.Repos().Categories.List(ctx, activeOnly)
}

func validateProvider(p *models.ServiceProvider) error {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return models.NewValidationError("full_name", "is required")
	}
	if p.CategoryID == uuid.Nil {
		return models.NewValidationError("category_id", "is required")
	}
	if p.ExperienceYears != nil && *p.ExperienceYears < 0 {
		return models.NewValidationError("experience_years", "cannot be negative")
	}
	return nil
}

func (s *providerService) Create(ctx context.Context, provider *models.ServiceProvider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}
	if _, err := s.store.Repos().Categories.GetByID(ctx, provider.CategoryID); err != nil {
		return models.NewValidationError("category_id", "does not exist")
	}
	provider.ID = uuid.New()
	return s.store.Repos().Providers.Create(ctx, provider)
}

func (s *providerService) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	return s.store.Repos().Providers.GetByID(ctx, id)
}

func (s *providerService) Update(ctx context.Context, provider *models.ServiceProvider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}
	return s.store.Repos().Providers.Update(ctx, provider)
}

func (s *providerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Repos().Providers.Delete(ctx, id)
}

func (s *providerService) List(ctx context.Context, filter models.ProviderFilter) ([]*models.ServiceProvider, error) {
	return s.store.Repos().Providers.List(ctx, filter)
}
