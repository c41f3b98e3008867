package types

import "github.com/shopspring/decimal"

// FormatPounds renders an amount in pence as "£X.XX".
func FormatPounds(pence int64) string {
	return "£" + decimal.New(pence, -2).StringFixed(2)
}

// PenceToPounds converts pence into a decimal pound amount for display payloads.
func PenceToPounds(pence int64) decimal.Decimal {
	return decimal.New(pence, -2)
}
