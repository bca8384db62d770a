package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domcart "example.com/gomarket-cart/internal/domain/cart"
	cartuc "example.com/gomarket-cart/internal/usecase/cart"
)

type addCartItemRequest struct {
	ID       string           `json:"id" validate:"required,max=128"`
	Title    string           `json:"title" validate:"required,max=256"`
	ImageURL string           `json:"image_url" validate:"max=2048"`
	Price    *decimal.Decimal `json:"price" validate:"required,gte=0"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	svc, err := cartuc.FromContext(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	a.respondCart(w, svc, http.StatusOK)
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	svc, err := cartuc.FromContext(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	item := domcart.ProductInput{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    *req.Price,
	}
	if err := svc.AddToCart(r.Context(), item); err != nil {
		handleDomainError(w, err)
		return
	}
	a.respondCart(w, svc, http.StatusCreated)
}

func (a *API) handleIncrementCartItem(w http.ResponseWriter, r *http.Request) {
	svc, err := cartuc.FromContext(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := svc.Increment(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleDomainError(w, err)
		return
	}
	a.respondCart(w, svc, http.StatusOK)
}

func (a *API) handleDecrementCartItem(w http.ResponseWriter, r *http.Request) {
	svc, err := cartuc.FromContext(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := svc.Decrement(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleDomainError(w, err)
		return
	}
	a.respondCart(w, svc, http.StatusOK)
}

func (a *API) respondCart(w http.ResponseWriter, svc *cartuc.Service, status int) {
	products, err := svc.Products()
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, status, mapCart(products))
}
