package cart

import (
	"context"

	domcart "example.com/gomarket-cart/internal/domain/cart"
)

type ctxServiceKey struct{}

// WithService makes svc the cart handle for everything running under ctx.
func WithService(ctx context.Context, svc *Service) context.Context {
	return context.WithValue(ctx, ctxServiceKey{}, svc)
}

// FromContext returns the handle placed by WithService, or
// domcart.ErrUninitializedContext when there is none.
func FromContext(ctx context.Context) (*Service, error) {
	svc, ok := ctx.Value(ctxServiceKey{}).(*Service)
	if !ok || svc == nil {
		return nil, domcart.ErrUninitializedContext
	}
	return svc, nil
}
