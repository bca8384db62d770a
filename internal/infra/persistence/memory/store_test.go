package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/gomarket-cart/internal/infra/persistence/kv/kvtest"
)

func TestStore_Conformance(t *testing.T) {
	kvtest.Run(t, New(), "test:")
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	value := []byte("abc")

	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)

	got[1] = 'y'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, New().Set(ctx, "k", []byte("v")), context.Canceled)
}
