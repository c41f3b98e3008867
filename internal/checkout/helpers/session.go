package helpers

import (
	"fmt"
	"strconv"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/stripe/stripe-go/v84"
)

const currencyGBP = "gbp"

// SessionParams builds the hosted checkout request for an order: a single
// GBP line for the discounted total, redirect URLs on baseURL, and the order
// id in metadata for the webhook.
func SessionParams(order *models.Order, baseURL string) *stripe.CheckoutSessionParams {
	itemCount := len(order.Items)
	description := fmt.Sprintf("%d item", itemCount)
	if itemCount != 1 {
		description += "s"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currencyGBP),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Order #" + order.OrderNumber),
					Description: stripe.String(description),
				},
				UnitAmount: stripe.Int64(order.TotalPence),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:    stripe.String(fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}&order_id=%s", baseURL, order.ID)),
		CancelURL:     stripe.String(baseURL + "/checkout/cancel"),
		CustomerEmail: stripe.String(order.CustomerEmail),
		Metadata: map[string]string{
			"orderId":   order.ID.String(),
			"itemCount": strconv.Itoa(itemCount),
		},
	}
	return params
}
