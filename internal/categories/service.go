package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the menu category operations.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryMenuDTO, error)
	Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlugWithProducts(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryInput is the validated create/update payload.
type CategoryInput struct {
	Name        string
	Description *string
	SortOrder   int
}

type service struct {
	repo categoryRepository
}

// NewService builds the category service.
func NewService(repo categoryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*CategoryMenuDTO, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	category, err := s.repo.FindBySlugWithProducts(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	dto := menuFromModel(*category)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	category, err := buildCategory(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(*category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	next, err := buildCategory(input)
	if err != nil {
		return nil, err
	}
	existing.Name = next.Name
	existing.Slug = next.Slug
	existing.Description = next.Description
	existing.SortOrder = next.SortOrder
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(*existing)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
			WithDetails(map[string]any{"products": count})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func buildCategory(input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category name is required")
	}
	return &models.Category{
		Name:        name,
		Slug:        slug.Make(name),
		Description: input.Description,
		SortOrder:   input.SortOrder,
	}, nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a category with this name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save category")
}
