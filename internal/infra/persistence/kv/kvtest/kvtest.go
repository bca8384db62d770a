// Package kvtest holds behaviour checks shared by every kv.Store backend.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/gomarket-cart/internal/infra/persistence/kv"
)

// Run exercises store with keys under prefix so integration runs against a
// shared backend do not collide.
func Run(t *testing.T, store kv.Store, prefix string) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		key := prefix + "roundtrip"
		require.NoError(t, store.Set(ctx, key, []byte(`[{"id":"a"}]`)))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, []byte(`[{"id":"a"}]`), got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		key := prefix + "overwrite"
		require.NoError(t, store.Set(ctx, key, []byte("first value, longer")))
		require.NoError(t, store.Set(ctx, key, []byte("second")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, []byte("second"), got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"one", []byte("1")))
		require.NoError(t, store.Set(ctx, prefix+"two", []byte("2")))

		one, err := store.Get(ctx, prefix+"one")
		require.NoError(t, err)
		two, err := store.Get(ctx, prefix+"two")
		require.NoError(t, err)
		require.Equal(t, []byte("1"), one)
		require.Equal(t, []byte("2"), two)
	})

	t.Run("bridge round trip", func(t *testing.T) {
		bridge := kv.NewBridge(store, prefix+"cart")
		products, err := bridge.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, products)

		raw := []byte(`[{"id":"a","title":"Rice","image_url":"u","price":10.25,"quantity":2}]`)
		require.NoError(t, store.Set(ctx, prefix+"cart", raw))
		products, err = bridge.Load(ctx)
		require.NoError(t, err)
		require.Len(t, products, 1)

		require.NoError(t, bridge.Save(ctx, products))
		again, err := bridge.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, products[0].ID, again[0].ID)
		require.Equal(t, "10.25", again[0].Price.String())
		require.Equal(t, 2, again[0].Quantity)
	})
}
