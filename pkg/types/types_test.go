package types

import "testing"

func TestFormatPounds(t *testing.T) {
	cases := map[int64]string{0: "£0.00", 5: "£0.05", 2499: "£24.99", 150000: "£1500.00"}
	for pence, want := range cases {
		if got := FormatPounds(pence); got != want {
			t.Fatalf("FormatPounds(%d) = %q want %q", pence, got, want)
		}
	}
}

func TestDeliveryAddressNormalizedAndComplete(t *testing.T) {
	blank := "  "
	addr := DeliveryAddress{Line1: " 1 High St ", City: "Leicester", PostalCode: " le1 5ab", Line2: &blank}
	norm := addr.Normalized()
	if !norm.Complete() {
		t.Fatalf("expected complete address: %+v", norm)
	}
	if norm.PostalCode != "LE1 5AB" || norm.Country != "GB" || norm.Line2 != nil {
		t.Fatalf("unexpected normalization: %+v", norm)
	}
	if got := norm.String(); got != "1 High St, Leicester, LE1 5AB" {
		t.Fatalf("unexpected string %q", got)
	}
	if (DeliveryAddress{Line1: "x", City: "y"}).Complete() {
		t.Fatal("expected missing postcode to be incomplete")
	}
}
