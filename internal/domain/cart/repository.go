package cart

import "context"

// Repository is the durable copy of the cart. Load returns an empty state
// when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}
