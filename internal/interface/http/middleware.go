package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	cartuc "example.com/gomarket-cart/internal/usecase/cart"
)

var (
	ctxOwnerKey        = struct{ name string }{"owner"}
	errUnauthenticated = errors.New("unauthenticated")
)

type authOwner struct {
	OwnerID string
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := a.tokenSvc.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), ctxOwnerKey, &authOwner{OwnerID: claims.OwnerID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cartScope hands the cart service to handlers through the request context.
func (a *API) cartScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(cartuc.WithService(r.Context(), a.cartSvc)))
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		kv := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		}
		if owner := getAuthOwner(r.Context()); owner != nil {
			kv = append(kv, "owner", owner.OwnerID)
		}
		a.log.Info("request", kv...)
	})
}

func getAuthOwner(ctx context.Context) *authOwner {
	if owner, ok := ctx.Value(ctxOwnerKey).(*authOwner); ok {
		return owner
	}
	return nil
}
