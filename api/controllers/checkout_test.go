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

	checkoutsvc "github.com/freshbox/freshbox-backend/internal/checkout"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

type stubCheckoutService struct {
	input  checkoutsvc.CheckoutInput
	result *checkoutsvc.Result
	err    error
}

func (s *stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.Result, error) {
	s.input = input
	return s.result, s.err
}

func TestCheckoutCreatesSession(t *testing.T) {
	productID := uuid.New()
	orderID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		Order: checkoutsvc.OrderSummary{
			ID:               orderID,
			OrderNumber:      "ORD-KX1",
			SubtotalPence:    4998,
			TotalAmountPence: 4998,
			PaymentStatus:    enums.PaymentStatusPending,
		},
		URL:       "https://checkout.stripe.com/c/pay/cs_test_1",
		SessionID: "cs_test_1",
	}}

	body := `{
		"items":[{"productId":"` + productID.String() + `","quantity":2,"addonIds":[],"orderType":"ONE_TIME","deliveryDates":["2030-01-07"]}],
		"customerEmail":"  jo@example.com ",
		"customerPhone":"07700 900000",
		"deliveryAddress":{"line1":"1 High St","city":"Leicester","postal_code":"LE1 1AA"},
		"discountCode":" "
	}`
	rec := serve(Checkout(svc, nil), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result checkoutsvc.Result
	decodeData(t, rec.Body, &result)
	assert.Equal(t, orderID, result.Order.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", result.URL)

	require.Len(t, svc.input.Items, 1)
	assert.Equal(t, productID, svc.input.Items[0].ProductID)
	assert.Equal(t, enums.OrderTypeOneTime, svc.input.Items[0].OrderType)
	assert.Equal(t, "jo@example.com", svc.input.CustomerEmail)
	assert.Nil(t, svc.input.DiscountCode, "blank codes are dropped")
	require.NotNil(t, svc.input.DeliveryAddress)
	assert.Equal(t, "LE1 1AA", svc.input.DeliveryAddress.PostalCode)
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"items":[],"customerEmail":"jo@example.com","totalPence":1}`
	rec := serve(Checkout(svc, nil), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.input.CustomerEmail, "service must not run")
}

func TestCheckoutSurfacesServiceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty"), http.StatusBadRequest, "Cart is empty"},
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "Discount not found or inactive"), http.StatusNotFound, "Discount not found or inactive"},
		{"payment provider", pkgerrors.New(pkgerrors.CodeDependency, "We could not start the payment. Please try again."), http.StatusServiceUnavailable, pkgerrors.MetadataFor(pkgerrors.CodeDependency).PublicMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCheckoutService{err: tc.err}
			rec := serve(Checkout(svc, nil), httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[]}`)))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decodeError(t, rec.Body).Message)
		})
	}
}
