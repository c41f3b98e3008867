package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/api/middleware"
	cartsvc "github.com/freshbox/freshbox-backend/internal/cart"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

type stubCartService struct {
	cartsvc.Service
	cartID   string
	added    cartsvc.AddItemInput
	key      string
	quantity int
	code     string
	cleared  bool
	err      error
}

func (s *stubCartService) quote(cartID string) (*cartsvc.Quote, error) {
	s.cartID = cartID
	if s.err != nil {
		return nil, s.err
	}
	return &cartsvc.Quote{CartID: cartID, Items: []cartsvc.QuoteLine{}}, nil
}

func (s *stubCartService) Get(ctx context.Context, cartID string) (*cartsvc.Quote, error) {
	return s.quote(cartID)
}

func (s *stubCartService) AddItem(ctx context.Context, cartID string, input cartsvc.AddItemInput) (*cartsvc.Quote, error) {
	s.added = input
	return s.quote(cartID)
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, cartID, key string, quantity int) (*cartsvc.Quote, error) {
	s.key, s.quantity = key, quantity
	return s.quote(cartID)
}

func (s *stubCartService) ApplyDiscount(ctx context.Context, cartID, code string) (*cartsvc.Quote, error) {
	s.code = code
	return s.quote(cartID)
}

func (s *stubCartService) Clear(ctx context.Context, cartID string) error {
	s.cartID = cartID
	s.cleared = true
	return s.err
}

func newCartRouter(svc cartsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CartID(nil))
	r.Get("/cart", CartFetch(svc, nil))
	r.Post("/cart/items", CartAddItem(svc, nil))
	r.Patch("/cart/items/{key}", CartUpdateQuantity(svc, nil))
	r.Put("/cart/discount", CartApplyDiscount(svc, nil))
	r.Delete("/cart", CartClear(svc, nil))
	return r
}

const testCartID = "6f7f5c6e-0e53-4c55-9b7a-1f8d8a3c2d10"

func TestCartFetchUsesHeaderID(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(middleware.CartIDHeader, testCartID)
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testCartID, svc.cartID)
	assert.Equal(t, testCartID, rec.Header().Get(middleware.CartIDHeader))
}

func TestCartFetchMintsIDWhenMissing(t *testing.T) {
	svc := &stubCartService{}
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, svc.cartID)
	assert.Equal(t, svc.cartID, rec.Header().Get(middleware.CartIDHeader))
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCartService{}
	body := `{"productId":"0b6cbb5e-8f0e-4b0c-9d0c-3a4f3f1f2a11","quantity":2,"orderType":"WEEKLY_PLAN","deliveryDates":["2030-01-07","2030-01-14"],"notes":"  leave at door "}`
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
	req.Header.Set(middleware.CartIDHeader, testCartID)
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, enums.OrderTypeWeeklyPlan, svc.added.OrderType)
	assert.Equal(t, 2, svc.added.Quantity)
	assert.Len(t, svc.added.DeliveryDates, 2)
	require.NotNil(t, svc.added.Notes)
	assert.Equal(t, "leave at door", *svc.added.Notes)
}

func TestCartAddItemValidation(t *testing.T) {
	cases := map[string]string{
		"no dates":       `{"productId":"0b6cbb5e-8f0e-4b0c-9d0c-3a4f3f1f2a11","quantity":1,"orderType":"ONE_TIME","deliveryDates":[]}`,
		"zero quantity":  `{"productId":"0b6cbb5e-8f0e-4b0c-9d0c-3a4f3f1f2a11","quantity":0,"orderType":"ONE_TIME","deliveryDates":["2030-01-07"]}`,
		"bad order type": `{"productId":"0b6cbb5e-8f0e-4b0c-9d0c-3a4f3f1f2a11","quantity":1,"orderType":"DAILY","deliveryDates":["2030-01-07"]}`,
		"client price":   `{"productId":"0b6cbb5e-8f0e-4b0c-9d0c-3a4f3f1f2a11","quantity":1,"orderType":"ONE_TIME","deliveryDates":["2030-01-07"],"pricePence":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCartService{}
			rec := httptest.NewRecorder()
			newCartRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.cartID, "service must not run")
		})
	}
}

func TestCartUpdateQuantityPassesKey(t *testing.T) {
	svc := &stubCartService{}
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/cart/items/line-abc", strings.NewReader(`{"quantity":3}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line-abc", svc.key)
	assert.Equal(t, 3, svc.quantity)
}

func TestCartApplyDiscountSurfacesRejection(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeValidation, "Minimum order amount is £20.00")}
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/cart/discount", strings.NewReader(`{"code":"BIG20"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Minimum order amount")
	assert.Equal(t, "BIG20", svc.code)
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set(middleware.CartIDHeader, testCartID)
	rec := httptest.NewRecorder()
	newCartRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}

func TestCartHandlersRequireCartID(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
