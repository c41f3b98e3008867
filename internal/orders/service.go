package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/outbox"
	"github.com/freshbox/freshbox-backend/pkg/outbox/payloads"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

var paymentActor = &outbox.ActorRef{Source: "stripe"}

// Service exposes order reads and payment state transitions.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params, filter ListFilter) (*OrderList, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (bool, error)
	FailPayment(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	bookings *schedule.Repository
	events   eventEmitter
	now      func() time.Time
}

// NewService builds the orders service.
func NewService(repo *Repository, tx txRunner, bookings *schedule.Repository, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if bookings == nil {
		return nil, fmt.Errorf("schedule repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, bookings: bookings, events: events, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filter ListFilter) (*OrderList, error) {
	if filter.PaymentStatus != nil && !filter.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	rows, next, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderSummaryDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Orders = append(out.Orders, SummaryFromModel(row))
	}
	return out, nil
}

// ConfirmPayment marks the order PAID, books one slot on each of its delivery
// days and queues an order_paid event. Replays of an already paid order change
// nothing and report false.
func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		paidAt := s.now().UTC()
		ok, err := repo.MarkPaid(ctx, id, paidAt)
		if err != nil || !ok {
			return err
		}
		changed = true

		dates, err := repo.DeliveryDates(ctx, id)
		if err != nil {
			return err
		}
		bookings := s.bookings.WithTx(tx)
		days := make([]string, 0, len(dates))
		for _, day := range dates {
			if err := bookings.IncrementBooked(ctx, day, 1); err != nil {
				return err
			}
			days = append(days, schedule.FormatDate(day))
		}

		return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         paymentActor,
			OccurredAt:    paidAt,
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerEmail: order.CustomerEmail,
				TotalPence:    order.TotalPence,
				PaidAt:        paidAt,
				DeliveryDates: days,
			},
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm payment")
	}
	return changed, nil
}

// FailPayment marks a PENDING order FAILED and queues an order_payment_failed
// event.
func (s *service) FailPayment(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		ok, err := repo.MarkFailed(ctx, id)
		if err != nil || !ok {
			return err
		}
		changed = true
		return s.events.EmitIfNotExists(ctx, tx, failedEvent(order))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail payment")
	}
	return changed, nil
}

func failedEvent(order *models.Order) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderPaymentFailed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         paymentActor,
		Data: payloads.OrderPaymentFailedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			TotalPence:    order.TotalPence,
		},
	}
}
