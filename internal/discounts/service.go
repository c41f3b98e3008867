package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freshbox/freshbox-backend/internal/pricing"
	product "github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	dbtypes "github.com/freshbox/freshbox-backend/pkg/db/types"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgMissingInput = "Missing discount code or cart items"
	msgApplied      = "Discount applied successfully"
)

// Service exposes discount administration and evaluation.
type Service interface {
	List(ctx context.Context) ([]DiscountDTO, error)
	Create(ctx context.Context, input DiscountInput) (*DiscountDTO, error)
	Update(ctx context.Context, id uuid.UUID, input DiscountInput) (*DiscountDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Toggle(ctx context.Context, id uuid.UUID) (*DiscountDTO, error)
	Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error)
	Evaluate(ctx context.Context, code string, lines []pricing.Line) (*pricing.Evaluation, error)
}

type discountRepository interface {
	List(ctx context.Context) ([]models.Discount, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	FindByCode(ctx context.Context, code string) (*models.Discount, error)
	Create(ctx context.Context, discount *models.Discount) error
	Save(ctx context.Context, discount *models.Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type selectionResolver interface {
	ResolveSelection(ctx context.Context, productID uuid.UUID, addonIDs []uuid.UUID) (*product.Selection, error)
}

// DiscountInput is the validated create/update payload.
type DiscountInput struct {
	Code          string
	Description   *string
	Type          enums.DiscountType
	Value         int64
	MinOrderPence int64
	MaxCapPence   *int64
	CategoryIDs   []uuid.UUID
}

// ValidateInput carries the code and the cart lines to test it against.
type ValidateInput struct {
	Code  string
	Items []ValidateItem
}

// ValidateItem is a cart line as submitted by the storefront.
type ValidateItem struct {
	ProductID     uuid.UUID
	AddonIDs      []uuid.UUID
	Quantity      int
	DeliveryDates []string
}

type service struct {
	repo       discountRepository
	categories categoryLoader
	catalog    selectionResolver
}

// NewService builds the discount service.
func NewService(repo discountRepository, categories categoryLoader, catalog selectionResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &service{repo: repo, categories: categories, catalog: catalog}, nil
}

func (s *service) List(ctx context.Context) ([]DiscountDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discounts")
	}
	out := make([]DiscountDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input DiscountInput) (*DiscountDTO, error) {
	discount := &models.Discount{IsActive: true}
	if err := s.apply(ctx, discount, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, discount); err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(*discount)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input DiscountInput) (*DiscountDTO, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load discount")
	}
	if err := s.apply(ctx, discount, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, discount); err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(*discount)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete discount")
	}
	return nil
}

// Toggle flips the active flag of a discount.
func (s *service) Toggle(ctx context.Context, id uuid.UUID) (*DiscountDTO, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load discount")
	}
	discount.IsActive = !discount.IsActive
	if err := s.repo.Save(ctx, discount); err != nil {
		return nil, mapWriteError(err)
	}
	dto := FromModel(*discount)
	return &dto, nil
}

// Validate prices the submitted lines from the catalog and evaluates code
// against them.
func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error) {
	if strings.TrimSpace(input.Code) == "" || len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMissingInput)
	}

	lines := make([]pricing.Line, 0, len(input.Items))
	for _, item := range input.Items {
		selection, err := s.catalog.ResolveSelection(ctx, item.ProductID, item.AddonIDs)
		if err != nil {
			return nil, err
		}
		lines = append(lines, selection.Line(pricing.ClampQuantity(item.Quantity), len(item.DeliveryDates)))
	}

	eval, err := s.Evaluate(ctx, input.Code, lines)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		Valid:         true,
		Message:       msgApplied,
		SubtotalPence: eval.SubtotalPence,
		DiscountPence: eval.DiscountPence,
		TotalPence:    eval.TotalPence,
		EligiblePence: eval.EligibleSubtotalPence,
		Discount:      eval.Discount,
	}, nil
}

// Evaluate looks code up case-insensitively and applies it to lines.
func (s *service) Evaluate(ctx context.Context, code string, lines []pricing.Line) (*pricing.Evaluation, error) {
	var candidate *pricing.Discount
	stored, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil:
		d := ToPricing(*stored)
		candidate = &d
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load discount")
	}

	eval, err := pricing.EvaluateDiscount(candidate, lines)
	if err != nil {
		return nil, err
	}
	return &eval, nil
}

func (s *service) apply(ctx context.Context, discount *models.Discount, input DiscountInput) error {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" || !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid discount payload")
	}
	if input.Value <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discounts cannot exceed 100")
	}
	if input.MinOrderPence < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum order must be non-negative")
	}

	var maxCap *int64
	if input.Type == enums.DiscountTypePercentage && input.MaxCapPence != nil && *input.MaxCapPence > 0 {
		v := *input.MaxCapPence
		maxCap = &v
	}

	ids := make(dbtypes.UUIDArray, 0, len(input.CategoryIDs))
	for _, id := range input.CategoryIDs {
		if ids.Contains(id) {
			continue
		}
		if _, err := s.categories.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown category").
					WithDetails(map[string]any{"categoryId": id})
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
		}
		ids = append(ids, id)
	}

	discount.Code = code
	discount.Description = input.Description
	discount.Type = input.Type
	discount.Value = input.Value
	discount.MinOrderPence = input.MinOrderPence
	discount.MaxDiscountCapPence = maxCap
	discount.CategoryIDs = ids
	return nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a discount with this code already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save discount")
}
