package products

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

const maxCopySlugAttempts = 50

// Service exposes catalog product operations for the storefront and admin.
type Service interface {
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProductDTO, error)
	Duplicate(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ResolveSelection(ctx context.Context, productID uuid.UUID, addonIDs []uuid.UUID) (*Selection, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// ProductInput holds the validated create/update payload.
type ProductInput struct {
	CategoryID          uuid.UUID
	Name                string
	Description         *string
	BasePricePence      int64
	Tags                *string
	MaxFreeAddons       int
	MaxPaidAddons       int
	AvailabilityOneTime bool
	AvailabilityWeekly  bool
	Addons              []AddonInput
	Images              []string
}

// AddonInput describes an add-on in a product payload. The type is derived
// from the price.
type AddonInput struct {
	Name        string
	Description *string
	PricePence  int64
}

type service struct {
	repo       *Repository
	tx         txRunner
	categories categoryLoader
}

// NewService builds the product service.
func NewService(repo *Repository, tx txRunner, categories categoryLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	return &service{repo: repo, tx: tx, categories: categories}, nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*ProductDTO, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	product, err := s.repo.FindActiveBySlug(ctx, value)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input, err := s.normalize(ctx, input)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:          input.CategoryID,
		Name:                input.Name,
		Slug:                slug.Make(input.Name),
		Description:         input.Description,
		BasePricePence:      input.BasePricePence,
		Tags:                input.Tags,
		MaxFreeAddons:       input.MaxFreeAddons,
		MaxPaidAddons:       input.MaxPaidAddons,
		AvailabilityOneTime: input.AvailabilityOneTime,
		AvailabilityWeekly:  input.AvailabilityWeekly,
		IsActive:            true,
		Addons:              buildAddons(input.Addons),
		Images:              buildImages(input.Name, input.Images),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureSlugFree(ctx, repo, product.Slug, uuid.Nil); err != nil {
			return err
		}
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	input, err := s.normalize(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		existing.CategoryID = input.CategoryID
		existing.Name = input.Name
		existing.Slug = slug.Make(input.Name)
		existing.Description = input.Description
		existing.BasePricePence = input.BasePricePence
		existing.Tags = input.Tags
		existing.MaxFreeAddons = input.MaxFreeAddons
		existing.MaxPaidAddons = input.MaxPaidAddons
		existing.AvailabilityOneTime = input.AvailabilityOneTime
		existing.AvailabilityWeekly = input.AvailabilityWeekly

		if err := ensureSlugFree(ctx, repo, existing.Slug, existing.ID); err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, existing); err != nil {
			return err
		}
		if err := syncAddons(ctx, repo, existing.ID, existing.Addons, input.Addons); err != nil {
			return err
		}
		return repo.ReplaceImages(ctx, existing.ID, buildImagesFor(existing.ID, input.Name, input.Images))
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return notFoundOr(err, "delete product")
	}
	return nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*ProductDTO, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "update product")
	}
	return s.Get(ctx, id)
}

// Duplicate copies a product as an inactive draft named "<name> (Copy)".
func (s *service) Duplicate(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	var copyID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		copySlug, err := nextCopySlug(ctx, repo, source.Slug)
		if err != nil {
			return err
		}

		clone := &models.Product{
			CategoryID:          source.CategoryID,
			Name:                source.Name + " (Copy)",
			Slug:                copySlug,
			Description:         source.Description,
			BasePricePence:      source.BasePricePence,
			Tags:                source.Tags,
			MaxFreeAddons:       source.MaxFreeAddons,
			MaxPaidAddons:       source.MaxPaidAddons,
			AvailabilityOneTime: source.AvailabilityOneTime,
			AvailabilityWeekly:  source.AvailabilityWeekly,
			IsActive:            false,
		}
		for _, a := range source.Addons {
			if !a.IsActive {
				continue
			}
			clone.Addons = append(clone.Addons, models.Addon{
				Name:        a.Name,
				Description: a.Description,
				PricePence:  a.PricePence,
				IsActive:    true,
			})
		}
		for _, img := range source.Images {
			clone.Images = append(clone.Images, models.ProductImage{
				URL:      img.URL,
				Metadata: img.Metadata,
				Position: img.Position,
			})
		}
		if err := repo.Create(ctx, clone); err != nil {
			return err
		}
		copyID = clone.ID
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return s.Get(ctx, copyID)
}

func (s *service) normalize(ctx context.Context, input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.CategoryID == uuid.Nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields")
	}
	if input.BasePricePence < 0 || input.MaxFreeAddons < 0 || input.MaxPaidAddons < 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "prices and add-on limits must be non-negative")
	}

	seen := make(map[string]struct{}, len(input.Addons))
	for i := range input.Addons {
		a := &input.Addons[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "add-on name is required").
				WithDetails(map[string]any{"index": i})
		}
		if a.PricePence < 0 {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "add-on price must be non-negative").
				WithDetails(map[string]any{"addon": a.Name})
		}
		key := strings.ToLower(a.Name)
		if _, dup := seen[key]; dup {
			return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate add-on name %q", a.Name))
		}
		seen[key] = struct{}{}
	}

	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return input, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return input, nil
}

// syncAddons matches add-ons by case-insensitive name: matches are updated and
// reactivated, new names created, and missing ones deactivated when past
// orders reference them or deleted otherwise.
func syncAddons(ctx context.Context, repo *Repository, productID uuid.UUID, existing []models.Addon, wanted []AddonInput) error {
	byName := make(map[string]models.Addon, len(existing))
	for _, a := range existing {
		byName[strings.ToLower(a.Name)] = a
	}
	kept := make(map[uuid.UUID]struct{}, len(wanted))

	for _, in := range wanted {
		current, ok := byName[strings.ToLower(in.Name)]
		if !ok {
			addon := &models.Addon{
				ProductID:   productID,
				Name:        in.Name,
				Description: in.Description,
				PricePence:  in.PricePence,
				IsActive:    true,
			}
			if err := repo.CreateAddon(ctx, addon); err != nil {
				return err
			}
			continue
		}
		kept[current.ID] = struct{}{}
		current.Description = in.Description
		current.PricePence = in.PricePence
		current.IsActive = true
		if err := repo.SaveAddon(ctx, &current); err != nil {
			return err
		}
	}

	for _, a := range existing {
		if _, ok := kept[a.ID]; ok {
			continue
		}
		used, err := repo.AddonInUse(ctx, a.ID)
		if err != nil {
			return err
		}
		if used {
			if !a.IsActive {
				continue
			}
			a.IsActive = false
			if err := repo.SaveAddon(ctx, &a); err != nil {
				return err
			}
			continue
		}
		if err := repo.DeleteAddon(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func buildAddons(inputs []AddonInput) []models.Addon {
	out := make([]models.Addon, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, models.Addon{
			Name:        in.Name,
			Description: in.Description,
			PricePence:  in.PricePence,
			IsActive:    true,
		})
	}
	return out
}

func buildImages(name string, urls []string) []models.ProductImage {
	return buildImagesFor(uuid.Nil, name, urls)
}

func buildImagesFor(productID uuid.UUID, name string, urls []string) []models.ProductImage {
	out := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		alt := fmt.Sprintf("%s %d", name, i+1)
		out = append(out, models.ProductImage{
			ProductID: productID,
			URL:       url,
			Metadata:  &alt,
			Position:  len(out),
		})
	}
	return out
}

func ensureSlugFree(ctx context.Context, repo *Repository, value string, exclude uuid.UUID) error {
	taken, err := repo.SlugTaken(ctx, value, exclude)
	if err != nil {
		return err
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists").
			WithDetails(map[string]any{"slug": value})
	}
	return nil
}

func nextCopySlug(ctx context.Context, repo *Repository, base string) (string, error) {
	for n := 1; n <= maxCopySlugAttempts; n++ {
		candidate := slug.Copy(base, n)
		taken, err := repo.SlugTaken(ctx, candidate, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "too many copies of this product")
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func mapWriteError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
}
