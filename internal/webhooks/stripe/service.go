// Package stripewebhook applies hosted checkout outcomes reported by the
// payment provider to orders.
package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

// Webhook outcomes recorded per event.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

type paymentRecorder interface {
	ConfirmPayment(ctx context.Context, id uuid.UUID) (bool, error)
	FailPayment(ctx context.Context, id uuid.UUID) (bool, error)
}

type ServiceParams struct {
	Orders  paymentRecorder
	Metrics *metrics.StorefrontMetrics
	Logger  *logger.Logger
}

type Service struct {
	orders  paymentRecorder
	metrics *metrics.StorefrontMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		orders:  params.Orders,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// HandleEvent settles the order referenced by a checkout session event.
// Completed sessions mark it paid, expired or failed ones mark it failed, and
// every other event type is acknowledged untouched.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	var settle func(context.Context, uuid.UUID) (bool, error)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		settle = s.orders.ConfirmPayment
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		settle = s.orders.FailPayment
	default:
		s.metrics.IncWebhook(eventType, OutcomeIgnored)
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		s.metrics.IncWebhook(eventType, OutcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		// Delayed payment methods finish through the async events.
		s.metrics.IncWebhook(eventType, OutcomeIgnored)
		return nil
	}

	orderID, err := uuid.Parse(session.Metadata["orderId"])
	if err != nil {
		s.warn(ctx, fmt.Sprintf("checkout session %s carries no usable order id", session.ID))
		s.metrics.IncWebhook(eventType, OutcomeIgnored)
		return nil
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
	}

	changed, err := settle(ctx, orderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.warn(ctx, fmt.Sprintf("checkout session %s references unknown order", session.ID))
			s.metrics.IncWebhook(eventType, OutcomeIgnored)
			return nil
		}
		s.metrics.IncWebhook(eventType, OutcomeFailed)
		return err
	}
	if !changed {
		s.metrics.IncWebhook(eventType, OutcomeDuplicate)
		return nil
	}
	s.metrics.IncWebhook(eventType, OutcomeProcessed)
	return nil
}

func (s *Service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
