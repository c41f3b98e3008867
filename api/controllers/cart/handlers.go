package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshbox/freshbox-backend/api/middleware"
	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	cartsvc "github.com/freshbox/freshbox-backend/internal/cart"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

// Every handler expects middleware.CartID to have resolved the cart id.

func cartID(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	id := middleware.CartIDFromContext(r.Context())
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart id missing"))
		return "", false
	}
	return id, true
}

// CartFetch returns the priced cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		quote, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartAddItem adds a line, merging quantities into an equal existing line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.AddItem(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.UpdateQuantity(r.Context(), id, chi.URLParam(r, "key"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		quote, err := svc.RemoveItem(r.Context(), id, chi.URLParam(r, "key"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CartApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.ApplyDiscount(r.Context(), id, validators.SanitizeString(payload.Code, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CartRemoveDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		quote, err := svc.RemoveDiscount(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := cartID(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
