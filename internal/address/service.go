// Package address backs the checkout address step: reverse geocoding of the
// customer's pin and delivery-zone checks on postcodes.
package address

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	pkgcheckout "github.com/freshbox/freshbox-backend/pkg/checkout"
	"github.com/freshbox/freshbox-backend/pkg/errors"
)

const msgMissingCoordinates = "Missing coordinates"

type geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (json.RawMessage, error)
}

type Service interface {
	Geocode(ctx context.Context, lat, lng string) (json.RawMessage, error)
	CheckPostcode(postcode string) (*PostcodeCheck, error)
}

// PostcodeCheck reports whether a postcode is inside the delivery zone.
type PostcodeCheck struct {
	Postcode    string `json:"postcode"`
	Deliverable bool   `json:"deliverable"`
}

type service struct {
	maps geocoder
	zone pkgcheckout.DeliveryZone
}

// NewService accepts a nil geocoder; Geocode then fails as unavailable.
func NewService(client geocoder, zone pkgcheckout.DeliveryZone) Service {
	return &service{maps: client, zone: zone}
}

func (s *service) Geocode(ctx context.Context, lat, lng string) (json.RawMessage, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil, errors.New(errors.CodeValidation, msgMissingCoordinates)
	}
	latValue, err := parseCoordinate(lat, 90)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "lat must be a number between -90 and 90")
	}
	lngValue, err := parseCoordinate(lng, 180)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "lng must be a number between -180 and 180")
	}
	if s.maps == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	return s.maps.ReverseGeocode(ctx, latValue, lngValue)
}

func (s *service) CheckPostcode(postcode string) (*PostcodeCheck, error) {
	normalized := pkgcheckout.NormalizePostcode(postcode)
	if normalized == "" {
		return nil, errors.New(errors.CodeValidation, "postcode is required")
	}
	return &PostcodeCheck{Postcode: normalized, Deliverable: s.zone.Deliverable(normalized)}, nil
}

func parseCoordinate(value string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -bound || v > bound {
		return 0, strconv.ErrRange
	}
	return v, nil
}
