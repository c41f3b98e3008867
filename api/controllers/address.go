package controllers

import (
	"net/http"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/internal/address"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

// Geocode proxies a reverse geocode lookup and returns the provider's JSON.
func Geocode(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		query := r.URL.Query()
		raw, err := svc.Geocode(ctx, query.Get("lat"), query.Get("lng"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteRawJSON(w, http.StatusOK, raw)
	}
}

// PostcodeCheck reports whether a postcode is inside the delivery zone.
func PostcodeCheck(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		result, err := svc.CheckPostcode(r.URL.Query().Get("postcode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
