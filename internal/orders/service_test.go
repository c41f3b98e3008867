package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/db/dbtest"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/outbox"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	conn     *gorm.DB
	repo     *Repository
	bookings *schedule.Repository
	svc      Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	bookings := schedule.NewRepository(conn)
	svc, err := NewService(repo, db.FromGorm(conn), bookings, outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return fixture{conn: conn, repo: repo, bookings: bookings, svc: svc}
}

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func sampleOrder(number string, dates ...string) *models.Order {
	itemID := uuid.New()
	order := &models.Order{
		OrderNumber:   number,
		CustomerEmail: "jo@example.com",
		DeliveryAddress: types.DeliveryAddress{
			Line1: "1 High St", City: "Leicester", PostalCode: "LE1 1AA", Country: "GB",
		},
		SubtotalPence: 2749 * int64(len(dates)),
		TotalPence:    2749 * int64(len(dates)),
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusActive,
		Items: []models.OrderItem{{
			ID:              itemID,
			ItemType:        enums.OrderTypeCustomDays,
			Quantity:        1,
			UnitPricePence:  2749,
			TotalPricePence: 2749 * int64(len(dates)),
			ProductSnapshot: types.ProductSnapshot{Name: "Summer Fruit Box", BasePricePence: 2499},
			DeliveryDates:   dates,
			Addons: []models.OrderItemAddon{{
				AddonSnapshot: types.AddonSnapshot{Name: "Extra Berries", PricePence: 250, Type: enums.AddonTypePaid},
			}},
		}},
	}
	for _, d := range dates {
		order.Deliveries = append(order.Deliveries, models.OrderDelivery{
			OrderItemID:  itemID,
			DeliveryDate: date(d),
			Status:       enums.DeliveryStatusScheduled,
		})
	}
	return order
}

func TestCreateGraphAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := sampleOrder("ORD-1", "2026-03-12", "2026-03-13")
	require.NoError(t, f.repo.CreateGraph(ctx, order))

	dto, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", dto.OrderNumber)
	assert.Equal(t, "54.98", dto.TotalPounds.StringFixed(2))
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "Summer Fruit Box", dto.Items[0].Product.Name)
	require.Len(t, dto.Items[0].Addons, 1)
	assert.Equal(t, int64(250), dto.Items[0].Addons[0].Addon.PricePence)
	require.Len(t, dto.Deliveries, 2)
	assert.Equal(t, "2026-03-12", dto.Deliveries[0].DeliveryDate)
	assert.Equal(t, dto.Items[0].ID, dto.Deliveries[0].OrderItemID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConfirmPaymentBooksDeliveryDaysOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := sampleOrder("ORD-2", "2026-03-12", "2026-03-13")
	require.NoError(t, f.repo.CreateGraph(ctx, order))

	changed, err := f.svc.ConfirmPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.svc.ConfirmPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	rows, err := f.bookings.AvailabilityOn(ctx, []time.Time{date("2026-03-12"), date("2026-03-13")})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 1, row.OrdersBooked)
	}

	dto, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, dto.PaymentStatus)
	assert.NotNil(t, dto.PaidAt)

	changed, err = f.svc.FailPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	events := outboxEvents(t, f.conn)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderPaid, events[0].EventType)
	assert.Equal(t, order.ID, events[0].AggregateID)
	assert.Contains(t, string(events[0].Payload), `"delivery_dates":["2026-03-12","2026-03-13"]`)
}

func outboxEvents(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestFailPaymentAndUnknownOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := sampleOrder("ORD-3", "2026-03-12")
	require.NoError(t, f.repo.CreateGraph(ctx, order))

	changed, err := f.svc.FailPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	dto, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, dto.PaymentStatus)

	changed, err = f.svc.FailPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	events := outboxEvents(t, f.conn)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderPaymentFailed, events[0].EventType)

	_, err = f.svc.ConfirmPayment(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.FailPayment(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPagesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		order := sampleOrder(fmt.Sprintf("ORD-%d", 10+i), "2026-03-12")
		order.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.repo.CreateGraph(ctx, order))
		if i%2 == 0 {
			_, err := f.svc.ConfirmPayment(ctx, order.ID)
			require.NoError(t, err)
		}
	}

	first, err := f.svc.List(ctx, pagination.Params{Limit: 2}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "ORD-14", first.Orders[0].OrderNumber)
	assert.Equal(t, 1, first.Orders[0].ItemCount)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 2)
	assert.Equal(t, "ORD-12", second.Orders[0].OrderNumber)

	paid := enums.PaymentStatusPaid
	paidList, err := f.svc.List(ctx, pagination.Params{}, ListFilter{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Len(t, paidList.Orders, 3)

	byNumber, err := f.svc.List(ctx, pagination.Params{}, ListFilter{Query: "ord-11"})
	require.NoError(t, err)
	require.Len(t, byNumber.Orders, 1)

	bogus := enums.PaymentStatus("LOST")
	_, err = f.svc.List(ctx, pagination.Params{}, ListFilter{PaymentStatus: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFindPendingBefore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, number := range []string{"ORD-40", "ORD-41", "ORD-42"} {
		order := sampleOrder(number, "2026-03-12")
		order.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, f.repo.CreateGraph(ctx, order))
		if number == "ORD-40" {
			_, err := f.svc.ConfirmPayment(ctx, order.ID)
			require.NoError(t, err)
		}
	}

	rows, err := f.repo.FindPendingBefore(ctx, base.Add(90*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ORD-41", rows[0].OrderNumber)
}
