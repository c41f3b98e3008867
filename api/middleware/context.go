package middleware

import "context"

type contextKey string

const (
	ctxAdminID contextKey = "admin_id"
	ctxRole    contextKey = "admin_role"
	ctxCartID  contextKey = "cart_id"
)

func AdminIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// CartIDFromContext returns the guest cart id resolved by CartID.
func CartIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartID).(string); ok {
		return v
	}
	return ""
}

// WithAdminID injects the admin identifier into the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminID, adminID)
}

// WithCartID injects the cart identifier for downstream handlers.
func WithCartID(ctx context.Context, cartID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartID, cartID)
}
