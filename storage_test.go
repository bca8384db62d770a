package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/gomarket-cart/internal/config"
	"example.com/gomarket-cart/internal/platform/logger"
)

func TestOpenStore_LocalDrivers(t *testing.T) {
	ctx := context.Background()
	cases := map[string]config.StorageConfig{
		"memory": {Driver: config.DriverMemory},
		"sqlite": {Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "cart.db")},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			store, closeStore, err := openStore(ctx, cfg, logger.Nop())
			require.NoError(t, err)
			defer closeStore()

			require.NoError(t, store.Set(ctx, "k", []byte("v")))
			got, err := store.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("v"), got)
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), config.StorageConfig{Driver: "etcd"}, logger.Nop())
	require.Error(t, err)
}

func TestPrintOwnerToken_RequiresSecret(t *testing.T) {
	require.Error(t, printOwnerToken(config.AuthConfig{}))
}
