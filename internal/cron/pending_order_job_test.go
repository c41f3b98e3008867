package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

type fakePendingReader struct {
	cutoff time.Time
	limit  int
	orders []models.Order
	err    error
}

func (f *fakePendingReader) FindPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.orders, f.err
}

type fakePaymentFailer struct {
	failed []uuid.UUID
	errFor map[uuid.UUID]error
}

func (f *fakePaymentFailer) FailPayment(_ context.Context, id uuid.UUID) (bool, error) {
	if err := f.errFor[id]; err != nil {
		return false, err
	}
	f.failed = append(f.failed, id)
	return true, nil
}

func newPendingOrderJob(t *testing.T, reader *fakePendingReader, payment *fakePaymentFailer, ttl time.Duration) *pendingOrderJob {
	t.Helper()
	job, err := NewPendingOrderJob(PendingOrderJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Reader:  reader,
		Payment: payment,
		TTL:     ttl,
	})
	require.NoError(t, err)
	return job.(*pendingOrderJob)
}

func TestPendingOrderJobFailsStaleOrders(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	first, second := models.Order{ID: uuid.New()}, models.Order{ID: uuid.New()}
	reader := &fakePendingReader{orders: []models.Order{first, second}}
	payment := &fakePaymentFailer{}
	job := newPendingOrderJob(t, reader, payment, 0)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-defaultPendingOrderTTL), reader.cutoff)
	assert.Equal(t, pendingOrderBatch, reader.limit)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, payment.failed)
}

func TestPendingOrderJobKeepsGoingAfterFailure(t *testing.T) {
	broken, ok := models.Order{ID: uuid.New(), OrderNumber: "FB-1"}, models.Order{ID: uuid.New()}
	reader := &fakePendingReader{orders: []models.Order{broken, ok}}
	payment := &fakePaymentFailer{errFor: map[uuid.UUID]error{broken.ID: errors.New("db down")}}
	job := newPendingOrderJob(t, reader, payment, 2*time.Hour)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FB-1")
	assert.Equal(t, []uuid.UUID{ok.ID}, payment.failed)
}

func TestPendingOrderJobReaderError(t *testing.T) {
	reader := &fakePendingReader{err: errors.New("timeout")}
	job := newPendingOrderJob(t, reader, &fakePaymentFailer{}, time.Hour)
	assert.Error(t, job.Run(context.Background()))
}

func TestNewPendingOrderJobRequiresDeps(t *testing.T) {
	_, err := NewPendingOrderJob(PendingOrderJobParams{})
	assert.Error(t, err)
}
