package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/dbtest"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func seedOrder(t *testing.T, conn *gorm.DB, number, email string, itemType enums.OrderType, dates ...string) models.Order {
	t.Helper()
	itemID := uuid.New()
	order := models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		CustomerEmail:   email,
		DeliveryAddress: types.DeliveryAddress{Line1: "1 High St", City: "Leicester", PostalCode: "LE1 1AA"},
		SubtotalPence:   2499,
		TotalPence:      2499,
		PaymentStatus:   enums.PaymentStatusPaid,
		OrderStatus:     enums.OrderStatusActive,
	}
	require.NoError(t, conn.Omit("Items", "Deliveries").Create(&order).Error)
	item := models.OrderItem{
		ID:              itemID,
		OrderID:         order.ID,
		ItemType:        itemType,
		Quantity:        1,
		UnitPricePence:  2499,
		TotalPricePence: 2499 * int64(len(dates)),
		ProductSnapshot: types.ProductSnapshot{Name: "Summer Fruit Box", BasePricePence: 2499},
		DeliveryDates:   dates,
	}
	require.NoError(t, conn.Omit("Addons").Create(&item).Error)
	for _, d := range dates {
		delivery := models.OrderDelivery{
			OrderID:      order.ID,
			OrderItemID:  itemID,
			DeliveryDate: day(d),
			Status:       enums.DeliveryStatusScheduled,
		}
		require.NoError(t, conn.Omit("Order", "OrderItem").Create(&delivery).Error)
	}
	return order
}

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), time.UTC)
	require.NoError(t, err)
	return svc, conn
}

func TestListFiltersAndPages(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	seedOrder(t, conn, "ORD-a1", "jo@example.com", enums.OrderTypeCustomDays, "2026-04-01", "2026-04-03")
	seedOrder(t, conn, "ORD-b2", "sam@example.com", enums.OrderTypeWeeklyPlan, "2026-04-02")

	all, err := svc.List(ctx, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 50, all.Limit)
	assert.Equal(t, 1, all.TotalPages)
	require.Len(t, all.Deliveries, 3)
	assert.Equal(t, "2026-04-01", all.Deliveries[0].DeliveryDate)
	assert.Equal(t, "2026-04-02", all.Deliveries[1].DeliveryDate)
	require.NotNil(t, all.Deliveries[0].Order)
	assert.Equal(t, "ORD-a1", all.Deliveries[0].Order.OrderNumber)
	require.NotNil(t, all.Deliveries[0].Item)
	assert.Equal(t, "Summer Fruit Box", all.Deliveries[0].Item.Product.Name)

	single, err := svc.List(ctx, ListInput{Date: "2026-04-03"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), single.Total)

	ranged, err := svc.List(ctx, ListInput{From: "2026-04-02", To: "2026-04-03"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), ranged.Total)

	byQuery, err := svc.List(ctx, ListInput{Query: "SAM@"})
	require.NoError(t, err)
	require.Equal(t, int64(1), byQuery.Total)
	assert.Equal(t, "ORD-b2", byQuery.Deliveries[0].Order.OrderNumber)

	byType, err := svc.List(ctx, ListInput{ItemType: "custom_days"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byType.Total)

	paged, err := svc.List(ctx, ListInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, paged.TotalPages)
	require.Len(t, paged.Deliveries, 1)
	assert.Equal(t, "2026-04-03", paged.Deliveries[0].DeliveryDate)
}

func TestListQueryMatchesWildcardsLiterally(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	seedOrder(t, conn, "ORD-a1", "jo@example.com", enums.OrderTypeOneTime, "2026-04-01")
	seedOrder(t, conn, "ORD-b2", "sam_lee@example.com", enums.OrderTypeOneTime, "2026-04-02")
	seedOrder(t, conn, "ORD-c3", "50%off@example.com", enums.OrderTypeOneTime, "2026-04-03")

	underscore, err := svc.List(ctx, ListInput{Query: "_"})
	require.NoError(t, err)
	require.Equal(t, int64(1), underscore.Total)
	assert.Equal(t, "ORD-b2", underscore.Deliveries[0].Order.OrderNumber)

	percent, err := svc.List(ctx, ListInput{Query: "%"})
	require.NoError(t, err)
	require.Equal(t, int64(1), percent.Total)
	assert.Equal(t, "ORD-c3", percent.Deliveries[0].Order.OrderNumber)

	none, err := svc.List(ctx, ListInput{Query: `\`})
	require.NoError(t, err)
	assert.Equal(t, int64(0), none.Total)
}

func TestListRejectsBadFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, input := range []ListInput{
		{Date: "tomorrow"},
		{From: "2026-04-05", To: "2026-04-01"},
		{ItemType: "MONTHLY"},
		{Status: "LOST"},
	} {
		_, err := svc.List(ctx, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
}

func TestUpdateStatusStampsDeliveredAt(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	seedOrder(t, conn, "ORD-c3", "jo@example.com", enums.OrderTypeOneTime, "2026-04-01")

	var row models.OrderDelivery
	require.NoError(t, conn.First(&row).Error)

	delivered, err := svc.UpdateStatus(ctx, row.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	back, err := svc.UpdateStatus(ctx, row.ID, "OUT_FOR_DELIVERY")
	require.NoError(t, err)
	assert.Nil(t, back.DeliveredAt)

	_, err = svc.UpdateStatus(ctx, row.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateStatus(ctx, row.ID, "LOST")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateStatus(ctx, uuid.New(), "DELIVERED")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
