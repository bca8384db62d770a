package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domcart "example.com/gomarket-cart/internal/domain/cart"
	"example.com/gomarket-cart/internal/infra/persistence/kv"
	"example.com/gomarket-cart/internal/infra/persistence/kv/kvtest"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, s.Ping(context.Background()))
	kvtest.Run(t, s, "test:")
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()
	state := []domcart.Product{
		{ID: "a", Title: "Rice", ImageURL: "u", Price: decimal.NewFromInt(10), Quantity: 2},
	}

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, kv.NewBridge(first, "").Save(ctx, state))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	got, err := kv.NewBridge(second, "").Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, 2, got[0].Quantity)
}
