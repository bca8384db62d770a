package cart

import "github.com/shopspring/decimal"

// ProductInput describes a product being added to the cart, before it has a quantity.
type ProductInput struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
	Quantity int
}

// Add returns a new state with in appended at quantity 1. When an entry with
// the same ID exists it is incremented instead and its title, image and price
// are kept.
func Add(products []Product, in ProductInput) []Product {
	if indexOf(products, in.ID) >= 0 {
		return Increment(products, in.ID)
	}
	next := make([]Product, len(products), len(products)+1)
	copy(next, products)
	return append(next, Product{
		ID:       in.ID,
		Title:    in.Title,
		ImageURL: in.ImageURL,
		Price:    in.Price,
		Quantity: 1,
	})
}

func Increment(products []Product, id string) []Product {
	next := Clone(products)
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity++
		}
	}
	return next
}

// Decrement returns a new state with the entry for id lowered by one. An
// entry at quantity 1 leaves the cart.
func Decrement(products []Product, id string) []Product {
	next := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID == id {
			if p.Quantity <= 1 {
				continue
			}
			p.Quantity--
		}
		next = append(next, p)
	}
	return next
}

// Clone never returns nil so an empty cart still encodes as a list.
func Clone(products []Product) []Product {
	next := make([]Product, len(products))
	copy(next, products)
	return next
}

func Find(products []Product, id string) (Product, bool) {
	if i := indexOf(products, id); i >= 0 {
		return products[i], true
	}
	return Product{}, false
}

// Normalize repairs a state read from storage: entries without an ID or with
// a quantity below 1 are dropped and duplicate IDs are folded into their first
// occurrence. It reports how many entries were dropped or folded.
func Normalize(products []Product) ([]Product, int) {
	next := make([]Product, 0, len(products))
	seen := make(map[string]int, len(products))
	removed := 0
	for _, p := range products {
		if p.ID == "" || p.Quantity < 1 {
			removed++
			continue
		}
		if i, ok := seen[p.ID]; ok {
			next[i].Quantity += p.Quantity
			removed++
			continue
		}
		seen[p.ID] = len(next)
		next = append(next, p)
	}
	return next, removed
}

func indexOf(products []Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
