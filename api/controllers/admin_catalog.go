package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	"github.com/freshbox/freshbox-backend/internal/categories"
	"github.com/freshbox/freshbox-backend/internal/products"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	SortOrder   int     `json:"sortOrder"`
}

func (c categoryRequest) toInput() categories.CategoryInput {
	return categories.CategoryInput{
		Name:        validators.SanitizeString(c.Name, 120),
		Description: validators.SanitizeOptional(c.Description, 1000),
		SortOrder:   c.SortOrder,
	}
}

func AdminCategoryCreate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCategoryUpdate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "categoryId"), "category id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCategoryDelete(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "categoryId"), "category id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type productRequest struct {
	CategoryID          uuid.UUID      `json:"categoryId" validate:"required"`
	Name                string         `json:"name" validate:"required,max=200"`
	Description         *string        `json:"description,omitempty" validate:"omitempty,max=5000"`
	BasePricePence      int64          `json:"basePricePence" validate:"gte=0"`
	Tags                *string        `json:"tags,omitempty" validate:"omitempty,max=500"`
	MaxFreeAddons       int            `json:"maxFreeAddons" validate:"gte=0"`
	MaxPaidAddons       int            `json:"maxPaidAddons" validate:"gte=0"`
	AvailabilityOneTime bool           `json:"availabilityOneTime"`
	AvailabilityWeekly  bool           `json:"availabilityWeekly"`
	Addons              []addonRequest `json:"addons" validate:"dive"`
	Images              []string       `json:"images" validate:"dive,url"`
}

type addonRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PricePence  int64   `json:"pricePence" validate:"gte=0"`
}

func (p productRequest) toInput() products.ProductInput {
	addons := make([]products.AddonInput, len(p.Addons))
	for i, a := range p.Addons {
		addons[i] = products.AddonInput{
			Name:        validators.SanitizeString(a.Name, 120),
			Description: validators.SanitizeOptional(a.Description, 500),
			PricePence:  a.PricePence,
		}
	}
	return products.ProductInput{
		CategoryID:          p.CategoryID,
		Name:                validators.SanitizeString(p.Name, 200),
		Description:         validators.SanitizeOptional(p.Description, 5000),
		BasePricePence:      p.BasePricePence,
		Tags:                validators.SanitizeOptional(p.Tags, 500),
		MaxFreeAddons:       p.MaxFreeAddons,
		MaxPaidAddons:       p.MaxPaidAddons,
		AvailabilityOneTime: p.AvailabilityOneTime,
		AvailabilityWeekly:  p.AvailabilityWeekly,
		Addons:              addons,
		Images:              p.Images,
	}
}

// AdminProductList lists every product, optionally within one category.
func AdminProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), products.ListFilter{CategoryID: categoryID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": list})
	}
}

func AdminProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type productActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func AdminProductSetActive(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SetActive(r.Context(), id, *payload.IsActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminProductDuplicate copies a product as an inactive draft.
func AdminProductDuplicate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "product id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Duplicate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}
