package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/internal/checkout/helpers"
	"github.com/freshbox/freshbox-backend/internal/orders"
	product "github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/pricing"
	pkgcheckout "github.com/freshbox/freshbox-backend/pkg/checkout"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

const (
	msgCartEmpty          = "Cart is empty"
	msgInvalidTotal       = "Invalid total"
	msgDatesRequired      = "At least one delivery date is required"
	msgPaymentUnavailable = "We could not start the payment. Please try again."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type selectionResolver interface {
	ResolveSelection(ctx context.Context, productID uuid.UUID, addonIDs []uuid.UUID) (*product.Selection, error)
}

type dateValidator interface {
	ValidateDates(ctx context.Context, dates []string) ([]time.Time, error)
}

type discountEvaluator interface {
	Evaluate(ctx context.Context, code string, lines []pricing.Line) (*pricing.Evaluation, error)
}

type sessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Service turns a submitted cart into a PENDING order and a hosted payment
// session.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*Result, error)
}

// CheckoutInput is the validated checkout request.
type CheckoutInput struct {
	Items           []ItemInput
	CustomerEmail   string
	CustomerPhone   *string
	DeliveryAddress *types.DeliveryAddress
	DiscountCode    *string
}

// ItemInput is one cart line. Prices are always taken from the catalog.
type ItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	AddonIDs      []uuid.UUID
	OrderType     enums.OrderType
	DeliveryDates []string
}

// OrderSummary is the order part of a checkout response.
type OrderSummary struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"orderNumber"`
	SubtotalPence    int64               `json:"subtotalPence"`
	DiscountPence    int64               `json:"discountPence"`
	TotalAmountPence int64               `json:"totalAmountPence"`
	PaymentStatus    enums.PaymentStatus `json:"paymentStatus"`
}

// Result is returned after the order and session were created.
type Result struct {
	Order     OrderSummary `json:"order"`
	URL       string       `json:"url"`
	SessionID string       `json:"sessionId"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx        txRunner
	Orders    *orders.Repository
	Catalog   selectionResolver
	Dates     dateValidator
	Discounts discountEvaluator
	Sessions  sessionCreator
	Zone      pkgcheckout.DeliveryZone
	BaseURL   string
	Metrics   *metrics.StorefrontMetrics
	Logger    *logger.Logger
}

type service struct {
	tx        txRunner
	orders    *orders.Repository
	catalog   selectionResolver
	dates     dateValidator
	discounts discountEvaluator
	sessions  sessionCreator
	zone      pkgcheckout.DeliveryZone
	baseURL   string
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if params.Dates == nil {
		return nil, fmt.Errorf("date validator required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount evaluator required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("payment session creator required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(params.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("public base url required")
	}
	return &service{
		tx:        params.Tx,
		orders:    params.Orders,
		catalog:   params.Catalog,
		dates:     params.Dates,
		discounts: params.Discounts,
		sessions:  params.Sessions,
		zone:      params.Zone,
		baseURL:   baseURL,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*Result, error) {
	order, err := s.prepare(ctx, input)
	if err != nil {
		s.metrics.IncCheckout(outcomeFor(err))
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).CreateGraph(ctx, order)
	})
	if err != nil {
		s.metrics.IncCheckout(metrics.CheckoutInternalFailed)
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already in use, please retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	session, err := s.sessions.CreateCheckoutSession(ctx, helpers.SessionParams(order, s.baseURL))
	if err != nil || session == nil {
		if s.logg != nil {
			s.logg.Error(ctx, "create checkout session failed; order left pending", err)
		}
		s.metrics.IncCheckout(metrics.CheckoutSessionFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgPaymentUnavailable).
			WithDetails(map[string]any{"orderId": order.ID})
	}

	if err := s.orders.SetStripeSession(ctx, order.ID, session.ID); err != nil {
		// The session exists and the webhook finds the order by metadata, so
		// a failed write here only loses the back-reference.
		if s.logg != nil {
			s.logg.Error(ctx, "store checkout session id", err)
		}
	}

	s.metrics.IncCheckout(metrics.CheckoutCreated)
	s.metrics.AddOrderValue(order.TotalPence)
	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("order %s created for %d pence", order.OrderNumber, order.TotalPence))
	}

	return &Result{
		Order: OrderSummary{
			ID:               order.ID,
			OrderNumber:      order.OrderNumber,
			SubtotalPence:    order.SubtotalPence,
			DiscountPence:    order.DiscountPence,
			TotalAmountPence: order.TotalPence,
			PaymentStatus:    order.PaymentStatus,
		},
		URL:       session.URL,
		SessionID: session.ID,
	}, nil
}

// prepare runs every validation and pricing step and returns the order graph
// ready to insert.
func (s *service) prepare(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	email, address, err := pkgcheckout.ValidateContact(input.CustomerEmail, input.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
	}
	if err := s.zone.ValidateZone(address); err != nil {
		return nil, err
	}

	var allDates []string
	for _, item := range input.Items {
		if !item.OrderType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type")
		}
		if len(item.DeliveryDates) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDatesRequired)
		}
		allDates = append(allDates, item.DeliveryDates...)
	}
	parsed, err := s.dates.ValidateDates(ctx, allDates)
	if err != nil {
		return nil, err
	}

	priced := make([]helpers.PricedItem, 0, len(input.Items))
	lines := make([]pricing.Line, 0, len(input.Items))
	offset := 0
	for _, item := range input.Items {
		selection, err := s.catalog.ResolveSelection(ctx, item.ProductID, item.AddonIDs)
		if err != nil {
			return nil, err
		}
		if !selection.SupportsOrderType(item.OrderType) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s is not available as %s", selection.Product.Name, item.OrderType))
		}
		p := helpers.PricedItem{
			Selection: selection,
			OrderType: item.OrderType,
			Quantity:  pricing.ClampQuantity(item.Quantity),
			Dates:     parsed[offset : offset+len(item.DeliveryDates)],
		}
		offset += len(item.DeliveryDates)
		priced = append(priced, p)
		lines = append(lines, p.Line())
	}

	subtotal := pricing.Subtotal(lines)
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     helpers.OrderNumber(s.now()),
		CustomerEmail:   email,
		CustomerPhone:   trimmed(input.CustomerPhone),
		DeliveryAddress: address,
		SubtotalPence:   subtotal,
		TotalPence:      subtotal,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderStatus:     enums.OrderStatusActive,
	}

	if code := trimmed(input.DiscountCode); code != nil {
		eval, err := s.discounts.Evaluate(ctx, *code, lines)
		if err != nil {
			return nil, err
		}
		discountID := eval.Discount.ID
		storedCode := eval.Discount.Code
		order.DiscountID = &discountID
		order.DiscountCode = &storedCode
		order.DiscountPence = eval.DiscountPence
		order.TotalPence = eval.TotalPence
	}

	if order.TotalPence <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidTotal)
	}

	for _, p := range priced {
		item, deliveries := helpers.BuildItem(p)
		order.Items = append(order.Items, item)
		order.Deliveries = append(order.Deliveries, deliveries...)
	}
	return order, nil
}

func outcomeFor(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
		return metrics.CheckoutRejected
	}
	return metrics.CheckoutInternalFailed
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
