package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/pkg/logger"
)

// CartIDHeader carries the guest cart id in both directions.
const CartIDHeader = "X-Cart-Id"

// CartID resolves the guest cart id from the request, minting a new one when
// the header is absent or not a uuid, and echoes it on the response.
func CartID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID := strings.TrimSpace(r.Header.Get(CartIDHeader))
			if _, err := uuid.Parse(cartID); err != nil {
				cartID = uuid.NewString()
			}
			w.Header().Set(CartIDHeader, cartID)

			ctx := WithCartID(r.Context(), cartID)
			if logg != nil {
				ctx = logg.WithCartID(ctx, cartID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
