package pricing

import (
	"testing"

	"github.com/google/uuid"
)

func fruitBoxLine(qty, deliveries int) Line {
	return Line{
		ProductID:      uuid.New(),
		ProductName:    "Summer Fruit Box",
		BasePricePence: 2499,
		Addons:         []Addon{{ID: uuid.New(), Name: "Extra Berries", PricePence: 250}},
		Quantity:       qty,
		Deliveries:     deliveries,
	}
}

func TestLineTotalExample(t *testing.T) {
	if got := LineTotal(fruitBoxLine(2, 3)); got != 16494 {
		t.Fatalf("expected 16494, got %d", got)
	}
	if got := UnitPrice(fruitBoxLine(2, 3)); got != 2749 {
		t.Fatalf("expected unit price 2749, got %d", got)
	}
}

func TestLineTotalScalesLinearly(t *testing.T) {
	for qty := 1; qty <= 4; qty++ {
		for deliveries := 1; deliveries <= 5; deliveries++ {
			base := LineTotal(fruitBoxLine(qty, deliveries))
			if got := LineTotal(fruitBoxLine(qty*2, deliveries)); got != base*2 {
				t.Fatalf("doubling quantity %d: expected %d got %d", qty, base*2, got)
			}
			if got := LineTotal(fruitBoxLine(qty, deliveries*2)); got != base*2 {
				t.Fatalf("doubling deliveries %d: expected %d got %d", deliveries, base*2, got)
			}
		}
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	lines := []Line{fruitBoxLine(1, 1), fruitBoxLine(2, 3), {BasePricePence: 300, Quantity: 1, Deliveries: 0}}
	if got := Subtotal(lines); got != 2749+16494 {
		t.Fatalf("unexpected subtotal %d", got)
	}
	if Subtotal(nil) != 0 {
		t.Fatal("empty subtotal should be zero")
	}
}

func TestClampQuantity(t *testing.T) {
	cases := map[int]int{-2: 1, 0: 1, 1: 1, 7: 7}
	for in, want := range cases {
		if got := ClampQuantity(in); got != want {
			t.Fatalf("ClampQuantity(%d) = %d want %d", in, got, want)
		}
	}
}
