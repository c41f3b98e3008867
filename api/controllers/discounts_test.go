package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/internal/discounts"
	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

type stubDiscountService struct {
	discounts.Service
	validateInput discounts.ValidateInput
	created       discounts.DiscountInput
	toggled       uuid.UUID
	result        *discounts.ValidationResult
	err           error
}

func (s *stubDiscountService) Validate(ctx context.Context, input discounts.ValidateInput) (*discounts.ValidationResult, error) {
	s.validateInput = input
	return s.result, s.err
}

func (s *stubDiscountService) Create(ctx context.Context, input discounts.DiscountInput) (*discounts.DiscountDTO, error) {
	s.created = input
	return &discounts.DiscountDTO{ID: uuid.New(), Code: input.Code, Type: input.Type}, s.err
}

func (s *stubDiscountService) Toggle(ctx context.Context, id uuid.UUID) (*discounts.DiscountDTO, error) {
	s.toggled = id
	return &discounts.DiscountDTO{ID: id}, s.err
}

func TestDiscountValidateMapsItems(t *testing.T) {
	productID := uuid.New()
	addonID := uuid.New()
	svc := &stubDiscountService{result: &discounts.ValidationResult{
		Valid:         true,
		SubtotalPence: 5498,
		DiscountPence: 500,
		TotalPence:    4998,
		Discount:      pricing.DiscountInfo{Code: "SAVE5"},
	}}

	body := `{"code":"save5","items":[{"productId":"` + productID.String() + `","addonIds":["` + addonID.String() + `"],"quantity":1,"orderType":"ONE_TIME","deliveryDates":["2030-01-07","2030-01-08"]}]}`
	rec := serve(DiscountValidate(svc, nil), httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "save5", svc.validateInput.Code)
	require.Len(t, svc.validateInput.Items, 1)
	assert.Equal(t, []uuid.UUID{addonID}, svc.validateInput.Items[0].AddonIDs)
	assert.Len(t, svc.validateInput.Items[0].DeliveryDates, 2)

	var result discounts.ValidationResult
	decodeData(t, rec.Body, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(4998), result.TotalPence)
}

func TestDiscountValidateReportsNotApplicable(t *testing.T) {
	svc := &stubDiscountService{err: pkgerrors.New(pkgerrors.CodeValidation, "This discount does not apply to selected products.")}
	rec := serve(DiscountValidate(svc, nil), httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", strings.NewReader(`{"code":"X","items":[]}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This discount does not apply to selected products.", decodeError(t, rec.Body).Message)
}

func TestAdminDiscountCreateValidatesType(t *testing.T) {
	svc := &stubDiscountService{}
	rec := serve(AdminDiscountCreate(svc, nil), httptest.NewRequest(http.MethodPost, "/api/admin/discounts", strings.NewReader(`{"code":"SUMMER","type":"BOGOF","value":10}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(AdminDiscountCreate(svc, nil), httptest.NewRequest(http.MethodPost, "/api/admin/discounts", strings.NewReader(`{"code":"SUMMER","type":"PERCENTAGE","value":10,"maxDiscountCapPence":1000}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, enums.DiscountTypePercentage, svc.created.Type)
	require.NotNil(t, svc.created.MaxCapPence)
	assert.Equal(t, int64(1000), *svc.created.MaxCapPence)
}

func TestAdminDiscountToggleParsesID(t *testing.T) {
	svc := &stubDiscountService{}
	id := uuid.New()

	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/", nil), map[string]string{"discountId": id.String()})
	rec := serve(AdminDiscountToggle(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.toggled)

	req = withURLParams(httptest.NewRequest(http.MethodPatch, "/", nil), map[string]string{"discountId": "nope"})
	rec = serve(AdminDiscountToggle(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
