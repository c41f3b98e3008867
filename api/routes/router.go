package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshbox/freshbox-backend/api/controllers"
	cartcontrollers "github.com/freshbox/freshbox-backend/api/controllers/cart"
	ordercontrollers "github.com/freshbox/freshbox-backend/api/controllers/orders"
	webhookcontrollers "github.com/freshbox/freshbox-backend/api/controllers/webhooks"
	"github.com/freshbox/freshbox-backend/api/middleware"
	"github.com/freshbox/freshbox-backend/internal/address"
	"github.com/freshbox/freshbox-backend/internal/auth"
	"github.com/freshbox/freshbox-backend/internal/cart"
	"github.com/freshbox/freshbox-backend/internal/categories"
	checkoutsvc "github.com/freshbox/freshbox-backend/internal/checkout"
	"github.com/freshbox/freshbox-backend/internal/deliveries"
	"github.com/freshbox/freshbox-backend/internal/discounts"
	"github.com/freshbox/freshbox-backend/internal/media"
	"github.com/freshbox/freshbox-backend/internal/orders"
	"github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/auth/session"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	pkgredis "github.com/freshbox/freshbox-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is the Redis surface the middleware chain needs.
type Store interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type signingSecretSource interface {
	SigningSecret() string
}

// Params carries everything the router wires. Nil services produce 500s on
// their routes instead of panics.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    Store
	Sessions session.AccessSessionChecker

	// Readiness dependencies keyed by name.
	Ready map[string]controllers.Pinger

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Auth       auth.Service
	Categories categories.Service
	Products   products.Service
	Discounts  discounts.Service
	Schedule   schedule.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	Deliveries deliveries.Service
	Address    address.Service
	Media      media.Service

	StripeWebhook       webhookcontrollers.StripeWebhookService
	StripeSigningSecret signingSecretSource
	StripeWebhookGuard  stripeWebhookGuard
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		metrics.NewHTTPMetrics(p.Registerer).Middleware,
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	discountPolicy := middleware.NewRateLimitPolicy(
		"discount",
		cfg.RateLimit.DiscountWindow,
		cfg.RateLimit.DiscountIPLimit,
		0,
	)
	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutEmailCap,
	).WithEmailField("customerEmail")

	loc := cfg.Delivery.TimeLocation()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(p.Gatherer))

	r.Post("/api/webhooks/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.StripeSigningSecret, p.StripeWebhookGuard, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.CategoryList(p.Categories, logg))
		r.Get("/categories/{slug}", controllers.CategoryMenu(p.Categories, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(p.Products, logg))
		r.Get("/schedule", controllers.ScheduleCalendar(p.Schedule, loc, logg))
		r.Get("/geocode", controllers.Geocode(p.Address, logg))
		r.Get("/address/postcode", controllers.PostcodeCheck(p.Address, logg))

		r.With(middleware.RateLimit(discountPolicy, p.Store, logg)).
			Post("/discounts/validate", controllers.DiscountValidate(p.Discounts, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartID(logg))
			r.Use(middleware.Idempotency(p.Store, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(p.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{key}", cartcontrollers.CartUpdateQuantity(p.Cart, logg))
				r.Delete("/items/{key}", cartcontrollers.CartRemoveItem(p.Cart, logg))
				r.Put("/discount", cartcontrollers.CartApplyDiscount(p.Cart, logg))
				r.Delete("/discount", cartcontrollers.CartRemoveDiscount(p.Cart, logg))
			})
		})

		// Checkout carries its lines in the body, so replays are keyed by the
		// Idempotency-Key alone and never by a cart id.
		r.With(
			middleware.Idempotency(p.Store, logg),
			middleware.RateLimit(checkoutPolicy, p.Store, logg),
		).Post("/checkout", controllers.Checkout(p.Checkout, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, p.Store, logg)).Post("/login", controllers.AdminAuthLogin(p.Auth, logg))
			r.Post("/refresh", controllers.AdminAuthRefresh(p.Auth, logg))
			r.Post("/logout", controllers.AdminAuthLogout(p.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Use(middleware.RequireRole(enums.AdminRoleAdmin, logg))
			r.Use(middleware.Idempotency(p.Store, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.CategoryList(p.Categories, logg))
				r.Post("/", controllers.AdminCategoryCreate(p.Categories, logg))
				r.Put("/{categoryId}", controllers.AdminCategoryUpdate(p.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoryDelete(p.Categories, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(p.Products, logg))
				r.Post("/", controllers.AdminProductCreate(p.Products, logg))
				r.Get("/{productId}", controllers.AdminProductGet(p.Products, logg))
				r.Put("/{productId}", controllers.AdminProductUpdate(p.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(p.Products, logg))
				r.Patch("/{productId}/active", controllers.AdminProductSetActive(p.Products, logg))
				r.Post("/{productId}/duplicate", controllers.AdminProductDuplicate(p.Products, logg))
			})

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", controllers.AdminDiscountList(p.Discounts, logg))
				r.Post("/", controllers.AdminDiscountCreate(p.Discounts, logg))
				r.Put("/{discountId}", controllers.AdminDiscountUpdate(p.Discounts, logg))
				r.Delete("/{discountId}", controllers.AdminDiscountDelete(p.Discounts, logg))
				r.Patch("/{discountId}/toggle", controllers.AdminDiscountToggle(p.Discounts, logg))
			})

			r.Route("/schedule", func(r chi.Router) {
				r.Get("/", controllers.ScheduleCalendar(p.Schedule, loc, logg))
				r.Put("/holidays", controllers.AdminHolidayUpsert(p.Schedule, logg))
				r.Delete("/holidays/{holidayId}", controllers.AdminHolidayDelete(p.Schedule, logg))
				r.Put("/availability", controllers.AdminAvailabilityUpsert(p.Schedule, logg))
				r.Delete("/availability/{availabilityId}", controllers.AdminAvailabilityDelete(p.Schedule, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(p.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
			})

			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/", controllers.AdminDeliveryList(p.Deliveries, logg))
				r.Patch("/{deliveryId}", controllers.AdminDeliveryUpdate(p.Deliveries, logg))
			})

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/images", controllers.AdminImageUpload(p.Media, cfg.GCS.MaxUploadBytes, logg))
				r.Delete("/images", controllers.AdminImageDelete(p.Media, logg))
			})
		})
	})

	return r
}
