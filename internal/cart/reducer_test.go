package cart

import (
	"testing"

	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	productA = uuid.MustParse("7a7c5b3e-1f0e-4d4c-9a57-2f0e0b0c1a01")
	addonX   = uuid.MustParse("7a7c5b3e-1f0e-4d4c-9a57-2f0e0b0c1a02")
	addonY   = uuid.MustParse("7a7c5b3e-1f0e-4d4c-9a57-2f0e0b0c1a03")
)

func sampleLine(qty int, dates []string, addons ...LineAddon) Line {
	return Line{
		ProductID:      productA,
		Name:           "Summer Fruit Box",
		BasePricePence: 2499,
		Addons:         addons,
		Quantity:       qty,
		OrderType:      enums.OrderTypeCustomDays,
		DeliveryDates:  dates,
	}
}

func TestKeyIgnoresOrdering(t *testing.T) {
	x := LineAddon{ID: addonX, PricePence: 250}
	y := LineAddon{ID: addonY, PricePence: 300}

	a := sampleLine(1, []string{"2026-03-12", "2026-03-11"}, x, y)
	b := sampleLine(3, []string{"2026-03-11", "2026-03-12"}, y, x)
	assert.Equal(t, a.Key(), b.Key())

	c := sampleLine(1, []string{"2026-03-11"}, x, y)
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, []string{"2026-03-12", "2026-03-11"}, a.DeliveryDates)
}

func TestAddItemMergesQuantity(t *testing.T) {
	state, err := Reduce(State{}, AddItem{Line: sampleLine(2, []string{"2026-03-11"})})
	require.NoError(t, err)
	state, err = Reduce(state, AddItem{Line: sampleLine(3, []string{"2026-03-11"})})
	require.NoError(t, err)

	require.Len(t, state.Items, 1)
	assert.Equal(t, 5, state.Items[0].Quantity)

	state, err = Reduce(state, AddItem{Line: sampleLine(0, []string{"2026-03-12"})})
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	assert.Equal(t, 1, state.Items[1].Quantity)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	original := State{Items: []Line{sampleLine(1, []string{"2026-03-11"})}}
	key := original.Items[0].Key()

	_, err := Reduce(original, UpdateQuantity{Key: key, Quantity: 9})
	require.NoError(t, err)
	assert.Equal(t, 1, original.Items[0].Quantity)

	_, err = Reduce(original, RemoveItem{Key: key})
	require.NoError(t, err)
	assert.Len(t, original.Items, 1)
}

func TestUpdateQuantityFloorsAtOne(t *testing.T) {
	state := State{Items: []Line{sampleLine(4, []string{"2026-03-11"})}}
	next, err := Reduce(state, UpdateQuantity{Key: state.Items[0].Key(), Quantity: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Items[0].Quantity)
}

func TestUnknownKeyFails(t *testing.T) {
	_, err := Reduce(State{}, RemoveItem{Key: "missing"})
	assert.ErrorIs(t, err, ErrLineNotFound)
	_, err = Reduce(State{}, UpdateQuantity{Key: "missing", Quantity: 2})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestDiscountActionsAndClear(t *testing.T) {
	state, err := Reduce(State{}, ApplyDiscount{Code: " summer10 "})
	require.NoError(t, err)
	require.NotNil(t, state.DiscountCode)
	assert.Equal(t, "SUMMER10", *state.DiscountCode)

	state, err = Reduce(state, RemoveDiscount{})
	require.NoError(t, err)
	assert.Nil(t, state.DiscountCode)

	state.Items = []Line{sampleLine(1, []string{"2026-03-11"})}
	state, err = Reduce(state, Clear{})
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
}

func TestTotals(t *testing.T) {
	state := State{Items: []Line{
		sampleLine(2, []string{"2026-03-11", "2026-03-12", "2026-03-13"},
			LineAddon{ID: addonX, PricePence: 250}),
		sampleLine(1, []string{"2026-03-14"}),
	}}
	assert.Equal(t, int64((2499+250)*2*3+2499), state.TotalPrice())
	assert.Equal(t, 4, state.TotalDeliveries())
}

func TestMarshalRoundTrip(t *testing.T) {
	code := "SUMMER10"
	state := State{Items: []Line{sampleLine(2, []string{"2026-03-11"})}, DiscountCode: &code}
	data, err := Marshal(state)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)

	empty, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = Unmarshal([]byte("{"))
	assert.Error(t, err)
}
