package address

import (
	"context"
	"encoding/json"
	"testing"

	pkgcheckout "github.com/freshbox/freshbox-backend/pkg/checkout"
	"github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	lat, lng float64
	calls    int
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) (json.RawMessage, error) {
	s.calls++
	s.lat, s.lng = lat, lng
	return json.RawMessage(`{"status":"OK","results":[]}`), nil
}

func TestGeocodeValidatesCoordinates(t *testing.T) {
	geo := &stubGeocoder{}
	svc := NewService(geo, pkgcheckout.NewDeliveryZone([]string{"LE1"}))
	ctx := context.Background()

	_, err := svc.Geocode(ctx, "", "-1.13")
	require.Error(t, err)
	assert.Equal(t, msgMissingCoordinates, errors.As(err).Message())

	_, err = svc.Geocode(ctx, "north", "-1.13")
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
	for _, pair := range [][2]string{
		{"95", "-1.13"},
		{"NaN", "-1.13"},
		{"52.63", "nan"},
		{"+Inf", "-1.13"},
		{"52.63", "-181"},
	} {
		_, err = svc.Geocode(ctx, pair[0], pair[1])
		assert.True(t, errors.IsCode(err, errors.CodeValidation), "lat=%s lng=%s", pair[0], pair[1])
	}
	assert.Zero(t, geo.calls)

	raw, err := svc.Geocode(ctx, " 52.63 ", "-1.13")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","results":[]}`, string(raw))
	assert.Equal(t, 52.63, geo.lat)
	assert.Equal(t, -1.13, geo.lng)
}

func TestGeocodeWithoutClient(t *testing.T) {
	svc := NewService(nil, pkgcheckout.NewDeliveryZone(nil))
	_, err := svc.Geocode(context.Background(), "1", "2")
	assert.True(t, errors.IsCode(err, errors.CodeDependency))
}

func TestCheckPostcode(t *testing.T) {
	svc := NewService(nil, pkgcheckout.NewDeliveryZone([]string{"LE1", "LE2"}))

	ok, err := svc.CheckPostcode(" le1 5ab ")
	require.NoError(t, err)
	assert.Equal(t, &PostcodeCheck{Postcode: "LE15AB", Deliverable: true}, ok)

	far, err := svc.CheckPostcode("M1 1AE")
	require.NoError(t, err)
	assert.False(t, far.Deliverable)

	_, err = svc.CheckPostcode("   ")
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}
