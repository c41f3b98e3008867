package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/api/controllers"
	"github.com/freshbox/freshbox-backend/api/middleware"
	"github.com/freshbox/freshbox-backend/internal/cart"
	checkoutsvc "github.com/freshbox/freshbox-backend/internal/checkout"
	"github.com/freshbox/freshbox-backend/internal/discounts"
	"github.com/freshbox/freshbox-backend/internal/products"
	pkgAuth "github.com/freshbox/freshbox-backend/pkg/auth"
	"github.com/freshbox/freshbox-backend/pkg/auth/session"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/enums"
)

type memoryStore struct {
	data    map[string]string
	windows map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, windows: map[string]int64{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	m.data[key] = str
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:idempotency:%s:%s", scope, id)
}

func (m *memoryStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.windows[scope]++
	return m.windows[scope] <= limit, m.windows[scope], nil
}

type allowSessions struct{}

func (allowSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubDiscounts struct{ discounts.Service }

func (stubDiscounts) List(context.Context) ([]discounts.DiscountDTO, error) {
	return []discounts.DiscountDTO{{Code: "SAVE10"}}, nil
}

type countingProducts struct {
	products.Service
	creates int
}

func (c *countingProducts) Create(_ context.Context, input products.ProductInput) (*products.ProductDTO, error) {
	c.creates++
	return &products.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

type stubCart struct{ cart.Service }

func (stubCart) Get(_ context.Context, cartID string) (*cart.Quote, error) {
	return &cart.Quote{CartID: cartID, Items: []cart.QuoteLine{}}, nil
}

type countingCheckout struct{ executions int }

func (c *countingCheckout) Execute(_ context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.Result, error) {
	c.executions++
	return &checkoutsvc.Result{
		Order:     checkoutsvc.OrderSummary{ID: uuid.New(), OrderNumber: fmt.Sprintf("ORD-%d", c.executions)},
		URL:       "https://checkout.stripe.test/" + input.CustomerEmail,
		SessionID: fmt.Sprintf("cs_test_%d", c.executions),
	}, nil
}

type noopWebhook struct{}

func (noopWebhook) HandleEvent(context.Context, *stripe.Event) error { return nil }

type staticSecret string

func (s staticSecret) SigningSecret() string { return string(s) }

type noopGuard struct{}

func (noopGuard) CheckAndMark(context.Context, string) (bool, error) { return true, nil }
func (noopGuard) Delete(context.Context, string) error               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", AllowedOrigins: []string{"https://shop.example.com"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "freshbox", ExpirationMinutes: 5},
		RateLimit: config.RateLimitConfig{
			LoginWindow:     time.Minute,
			LoginIPLimit:    2,
			LoginEmailLimit: 2,
			DiscountWindow:  time.Minute,
			DiscountIPLimit: 30,
			CheckoutWindow:  time.Minute,
			CheckoutIPLimit: 10,
		},
	}
}

func newTestRouter(t *testing.T, p Params) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	if p.Config == nil {
		p.Config = testConfig()
	}
	if p.Store == nil {
		p.Store = newMemoryStore()
	}
	if p.Sessions == nil {
		p.Sessions = allowSessions{}
	}
	p.Ready = map[string]controllers.Pinger{"db": okPinger{}, "redis": okPinger{}}
	p.Registerer = reg
	p.Gatherer = reg
	return NewRouter(p), reg
}

func adminToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AdminID: uuid.New(),
		Email:   "ops@freshbox.test",
		Role:    enums.AdminRoleAdmin,
		JTI:     session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, Params{})

	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, do(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	rec := do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(t, Params{Config: cfg, Discounts: stubDiscounts{}})

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/admin/discounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/discounts", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, cfg))
	rec = do(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SAVE10")
}

func TestAdminCreateIsIdempotent(t *testing.T) {
	cfg := testConfig()
	productsSvc := &countingProducts{}
	router, _ := newTestRouter(t, Params{Config: cfg, Products: productsSvc})
	token := adminToken(t, cfg)

	body := `{"categoryId":"` + uuid.NewString() + `","name":"Summer Fruit Box","basePricePence":2499}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "create-1")
		return do(router, req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, productsSvc.creates)
}

func TestCartRoutesEchoCartID(t *testing.T) {
	router, _ := newTestRouter(t, Params{Cart: stubCart{}})

	rec := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(middleware.CartIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Contains(t, rec.Body.String(), id)
}

func TestLoginIsRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, Params{})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
		req.RemoteAddr = "203.0.113.9:5555"
		last = do(router, req).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestStripeWebhookRejectsUnsignedBody(t *testing.T) {
	router, _ := newTestRouter(t, Params{
		StripeWebhook:       noopWebhook{},
		StripeSigningSecret: staticSecret("whsec_test"),
		StripeWebhookGuard:  noopGuard{},
	})
	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, Params{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Idempotency-Key")

	rec := do(router, req)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestImageUploadRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(t, Params{Config: cfg})

	rec := do(router, httptest.NewRequest(http.MethodPost, "/api/admin/uploads/images", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads/images", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, cfg))
	rec = do(router, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func checkoutBody(email string) string {
	return `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1,"orderType":"ONE_TIME","deliveryDates":["2026-11-02"]}],` +
		`"customerEmail":"` + email + `","deliveryAddress":{"line1":"1 High St","city":"Leicester","postal_code":"LE1 1AA","country":"GB"}}`
}

func TestCheckoutReplaysWithoutCartHeader(t *testing.T) {
	checkoutSvc := &countingCheckout{}
	store := newMemoryStore()
	router, _ := newTestRouter(t, Params{Checkout: checkoutSvc, Store: store})

	body := checkoutBody("jo@example.com")
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "checkout-abc")
		return do(router, req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, checkoutSvc.executions)
	assert.Len(t, store.data, 1)
	assert.Empty(t, second.Header().Get(middleware.CartIDHeader))
}

func TestCheckoutKeyReusedWithDifferentBody(t *testing.T) {
	checkoutSvc := &countingCheckout{}
	router, _ := newTestRouter(t, Params{Checkout: checkoutSvc})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "checkout-reused")
		return do(router, req)
	}

	require.Equal(t, http.StatusCreated, send(checkoutBody("jo@example.com")).Code)
	rec := send(checkoutBody("sam@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, checkoutSvc.executions)
}

func TestCheckoutWithoutKeyRunsEachTime(t *testing.T) {
	checkoutSvc := &countingCheckout{}
	router, _ := newTestRouter(t, Params{Checkout: checkoutSvc})

	body := checkoutBody("jo@example.com")
	for i := 0; i < 2; i++ {
		rec := do(router, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Equal(t, 2, checkoutSvc.executions)
}
