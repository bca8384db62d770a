package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domcart "example.com/gomarket-cart/internal/domain/cart"
	"example.com/gomarket-cart/internal/infra/security"
	"example.com/gomarket-cart/internal/platform/logger"
	cartuc "example.com/gomarket-cart/internal/usecase/cart"
)

type TokenParser interface {
	ParseToken(token string) (*security.Claims, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type API struct {
	cartSvc   *cartuc.Service
	health    HealthChecker
	tokenSvc  TokenParser
	validator *validator.Validate
	log       *logger.Logger
}

// Dependencies wires the API. A nil TokenService leaves the cart routes open.
type Dependencies struct {
	CartService  *cartuc.Service
	Health       HealthChecker
	TokenService TokenParser
	Logger       *logger.Logger
}

func NewAPI(deps Dependencies) *API {
	validate := validator.New()
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &API{
		cartSvc:   deps.CartService,
		health:    deps.Health,
		tokenSvc:  deps.TokenService,
		validator: validate,
		log:       log.With("component", "http"),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(pr chi.Router) {
			if a.tokenSvc != nil {
				pr.Use(a.authMiddleware)
			}
			pr.Use(a.cartScope)
			pr.Get("/cart", a.handleGetCart)
			pr.Post("/cart/items", a.handleAddCartItem)
			pr.Post("/cart/items/{id}/increment", a.handleIncrementCartItem)
			pr.Post("/cart/items/{id}/decrement", a.handleDecrementCartItem)
		})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "loaded": a.cartLoaded()}
	if a.health != nil {
		if err := a.health.Ping(r.Context()); err != nil {
			a.log.Warn("storage ping failed", "error", err)
			resp["status"] = "degraded"
			resp["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) cartLoaded() bool {
	if a.cartSvc == nil {
		return false
	}
	select {
	case <-a.cartSvc.Ready():
		return true
	default:
		return false
	}
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func mapProduct(p domcart.Product) map[string]any {
	return map[string]any{
		"id":        p.ID,
		"title":     p.Title,
		"image_url": p.ImageURL,
		"price":     json.Number(p.Price.String()),
		"quantity":  p.Quantity,
	}
}

func mapCart(products []domcart.Product) map[string]any {
	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		items = append(items, mapProduct(p))
	}
	return map[string]any{
		"products": items,
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrUninitializedContext),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		// the cart is not serving: not started yet, shutting down, or still loading
		respondError(w, http.StatusServiceUnavailable, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
