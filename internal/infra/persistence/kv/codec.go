package kv

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	domcart "example.com/gomarket-cart/internal/domain/cart"
)

// wireProduct is the stored form of a cart entry. Price is written as a JSON
// number taken from the decimal string so no float conversion happens.
type wireProduct struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func Encode(products []domcart.Product) ([]byte, error) {
	wire := make([]wireProduct, 0, len(products))
	for _, p := range products {
		wire = append(wire, wireProduct{
			ID:       p.ID,
			Title:    p.Title,
			ImageURL: p.ImageURL,
			Price:    json.Number(p.Price.String()),
			Quantity: p.Quantity,
		})
	}
	return json.Marshal(wire)
}

// Decode parses a stored cart. Any malformed payload is reported as
// domcart.ErrCorruptPersistedState. Entries are returned as stored; repairing
// them is left to domcart.Normalize.
func Decode(raw []byte) ([]domcart.Product, error) {
	var wire []wireProduct
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", domcart.ErrCorruptPersistedState, err)
	}

	products := make([]domcart.Product, 0, len(wire))
	for i, w := range wire {
		price := decimal.Zero
		if w.Price != "" {
			var err error
			price, err = decimal.NewFromString(w.Price.String())
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d price: %w", domcart.ErrCorruptPersistedState, i, err)
			}
		}
		products = append(products, domcart.Product{
			ID:       w.ID,
			Title:    w.Title,
			ImageURL: w.ImageURL,
			Price:    price,
			Quantity: w.Quantity,
		})
	}
	return products, nil
}
