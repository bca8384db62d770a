package kv

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domcart "example.com/gomarket-cart/internal/domain/cart"
)

// DefaultKey is where the cart lives when no key is configured.
const DefaultKey = "gomarket:cart:products"

const tracerName = "example.com/gomarket-cart/internal/infra/persistence/kv"

type Option func(*Bridge)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bridge) {
		if tp != nil {
			b.tracer = tp.Tracer(tracerName)
		}
	}
}

// Bridge stores the whole cart as one encoded value under a single key.
type Bridge struct {
	store  Store
	key    string
	tracer trace.Tracer
}

func NewBridge(store Store, key string, opts ...Option) *Bridge {
	if key == "" {
		key = DefaultKey
	}
	b := &Bridge{
		store:  store,
		key:    key,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Key() string {
	return b.key
}

func (b *Bridge) Load(ctx context.Context) ([]domcart.Product, error) {
	ctx, span := b.tracer.Start(ctx, "cart.load", trace.WithAttributes(attribute.String("cart.key", b.key)))
	defer span.End()

	raw, err := b.store.Get(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Int("cart.products", 0))
		return []domcart.Product{}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		return nil, fmt.Errorf("get %q: %w", b.key, err)
	}

	products, err := Decode(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("decode %q: %w", b.key, err)
	}
	span.SetAttributes(attribute.Int("cart.products", len(products)))
	return products, nil
}

func (b *Bridge) Save(ctx context.Context, products []domcart.Product) error {
	ctx, span := b.tracer.Start(ctx, "cart.save", trace.WithAttributes(
		attribute.String("cart.key", b.key),
		attribute.Int("cart.products", len(products)),
	))
	defer span.End()

	raw, err := Encode(products)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return fmt.Errorf("%w: encode: %w", domcart.ErrPersistenceWriteFailure, err)
	}
	if err := b.store.Set(ctx, b.key, raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set failed")
		return fmt.Errorf("%w: set %q: %w", domcart.ErrPersistenceWriteFailure, b.key, err)
	}
	return nil
}

// Ping reports backend health when the store supports it.
func (b *Bridge) Ping(ctx context.Context) error {
	if p, ok := b.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
