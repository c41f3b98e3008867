package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

const (
	defaultPendingOrderTTL = 24 * time.Hour
	pendingOrderBatch      = 200
)

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type paymentFailer interface {
	FailPayment(ctx context.Context, id uuid.UUID) (bool, error)
}

// PendingOrderJobParams configure the stale checkout sweep.
type PendingOrderJobParams struct {
	Logger  *logger.Logger
	Reader  pendingOrderReader
	Payment paymentFailer
	TTL     time.Duration
}

// NewPendingOrderJob builds the job that fails orders whose checkout was
// abandoned. It covers payment sessions whose expiry webhook never arrived.
func NewPendingOrderJob(params PendingOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending order reader required")
	}
	if params.Payment == nil {
		return nil, fmt.Errorf("payment service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &pendingOrderJob{
		logg:    params.Logger,
		reader:  params.Reader,
		payment: params.Payment,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

type pendingOrderJob struct {
	logg    *logger.Logger
	reader  pendingOrderReader
	payment paymentFailer
	ttl     time.Duration
	now     func() time.Time
}

func (j *pendingOrderJob) Name() string { return "pending-order-expiry" }

func (j *pendingOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	orders, err := j.reader.FindPendingBefore(ctx, cutoff, pendingOrderBatch)
	if err != nil {
		return fmt.Errorf("query pending orders: %w", err)
	}

	var errs error
	expired := 0
	for _, order := range orders {
		changed, err := j.payment.FailPayment(ctx, order.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.OrderNumber, err))
			continue
		}
		if changed {
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(orders),
		"expired": expired,
	})
	j.logg.Info(logCtx, "pending order sweep complete")
	return errs
}
