package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/gomarket-cart/internal/infra/persistence/kv"
	"example.com/gomarket-cart/internal/infra/persistence/memory"
	"example.com/gomarket-cart/internal/infra/security"
	cartuc "example.com/gomarket-cart/internal/usecase/cart"
)

type fakeHealth struct {
	err error
}

func (f fakeHealth) Ping(ctx context.Context) error {
	return f.err
}

type cartResponse struct {
	Products []struct {
		ID       string      `json:"id"`
		Title    string      `json:"title"`
		ImageURL string      `json:"image_url"`
		Price    json.Number `json:"price"`
		Quantity int         `json:"quantity"`
	} `json:"products"`
}

func setupCartAPI(t *testing.T, withAuth bool) (*API, string, *memory.Store) {
	t.Helper()
	store := memory.New()
	cartSvc := cartuc.NewService(kv.NewBridge(store, "test:cart"), nil)
	require.NoError(t, cartSvc.Start(context.Background()))
	t.Cleanup(func() { _ = cartSvc.Close(context.Background()) })

	deps := Dependencies{
		CartService: cartSvc,
		Health:      fakeHealth{},
	}
	var token string
	if withAuth {
		tokenSvc := security.NewJWTService("test-secret", time.Hour)
		deps.TokenService = tokenSvc
		var err error
		token, err = tokenSvc.GenerateToken("owner-1")
		require.NoError(t, err)
	}
	return NewAPI(deps), token, store
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var resp cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func riceBody() map[string]any {
	return map[string]any{
		"id":        "a",
		"title":     "Rice",
		"image_url": "u",
		"price":     10.5,
	}
}

func TestCart_AddItemSuccess(t *testing.T) {
	api, _, _ := setupCartAPI(t, false)
	router := api.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/cart/items", "", riceBody())

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeCart(t, rec)
	require.Len(t, resp.Products, 1)
	require.Equal(t, "a", resp.Products[0].ID)
	require.Equal(t, "Rice", resp.Products[0].Title)
	require.Equal(t, "u", resp.Products[0].ImageURL)
	require.Equal(t, "10.5", resp.Products[0].Price.String())
	require.Equal(t, 1, resp.Products[0].Quantity)
}

func TestCart_EmptyCartIsList(t *testing.T) {
	api, _, _ := setupCartAPI(t, false)

	rec := doJSON(t, api.Router(), http.MethodGet, "/api/v1/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestCart_FullScenario(t *testing.T) {
	api, _, store := setupCartAPI(t, false)
	router := api.Router()

	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/v1/cart/items", "", riceBody()).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/v1/cart/items/a/increment", "", nil).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/v1/cart/items", "", map[string]any{
		"id": "b", "title": "Beans", "image_url": "v", "price": "2.25",
	}).Code)

	resp := decodeCart(t, doJSON(t, router, http.MethodGet, "/api/v1/cart", "", nil))
	require.Len(t, resp.Products, 2)
	require.Equal(t, 2, resp.Products[0].Quantity)
	require.Equal(t, 1, resp.Products[1].Quantity)

	doJSON(t, router, http.MethodPost, "/api/v1/cart/items/a/decrement", "", nil)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/cart/items/a/decrement", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeCart(t, rec)
	require.Len(t, resp.Products, 1)
	require.Equal(t, "b", resp.Products[0].ID)

	require.NoError(t, api.cartSvc.Flush(context.Background()))
	raw, err := store.Get(context.Background(), "test:cart")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"b","title":"Beans","image_url":"v","price":2.25,"quantity":1}]`, string(raw))
}

func TestCart_IncrementUnknownItemIsNoop(t *testing.T) {
	api, _, _ := setupCartAPI(t, false)

	rec := doJSON(t, api.Router(), http.MethodPost, "/api/v1/cart/items/missing/increment", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeCart(t, rec).Products)
}

func TestCart_AddItemValidation(t *testing.T) {
	api, _, _ := setupCartAPI(t, false)
	router := api.Router()

	cases := map[string]map[string]any{
		"missing id":     {"title": "Rice", "price": 1},
		"missing title":  {"id": "a", "price": 1},
		"missing price":  {"id": "a", "title": "Rice"},
		"negative price": {"id": "a", "title": "Rice", "price": -1},
		"bad price":      {"id": "a", "title": "Rice", "price": "ten"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/cart/items", "", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCart_AuthRequiredWhenConfigured(t *testing.T) {
	api, token, _ := setupCartAPI(t, true)
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/cart", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/cart/items", token, riceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCart_ServiceNotStartedReturns503(t *testing.T) {
	api := NewAPI(Dependencies{
		CartService: cartuc.NewService(kv.NewBridge(memory.New(), ""), nil),
	})
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/cart/items", "", riceBody())
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCart_NoServiceInScopeReturns503(t *testing.T) {
	api := NewAPI(Dependencies{})

	rec := doJSON(t, api.Router(), http.MethodPost, "/api/v1/cart/items/a/increment", "", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "not initialized")
}

func TestHealth(t *testing.T) {
	api, _, _ := setupCartAPI(t, false)
	<-api.cartSvc.Ready()

	rec := doJSON(t, api.Router(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","loaded":true}`, rec.Body.String())

	degraded := NewAPI(Dependencies{Health: fakeHealth{err: errors.New("redis down")}})
	rec = doJSON(t, degraded.Router(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "redis down")
}
