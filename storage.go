package main

import (
	"context"
	"fmt"

	"example.com/gomarket-cart/internal/config"
	"example.com/gomarket-cart/internal/infra/persistence/kv"
	"example.com/gomarket-cart/internal/infra/persistence/memory"
	mysqlstore "example.com/gomarket-cart/internal/infra/persistence/mysql"
	pgstore "example.com/gomarket-cart/internal/infra/persistence/postgres"
	redisstore "example.com/gomarket-cart/internal/infra/persistence/redis"
	sqlitestore "example.com/gomarket-cart/internal/infra/persistence/sqlite"
	"example.com/gomarket-cart/internal/platform/logger"
)

const redisConnectAttempts = 5

// openStore builds the configured backend and returns a func that releases it.
func openStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (kv.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logg.Warn("memory storage selected, cart will not survive restarts")
		return memory.New(), func() {}, nil

	case config.DriverSQLite:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.DriverMySQL:
		db, err := mysqlstore.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		s := mysqlstore.NewKVStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return s, func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		s, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("pg migrate: %w", err)
		}
		return s, s.Close, nil

	case config.DriverRedis:
		s := redisstore.New(cfg.RedisAddr, logg)
		if err := s.Initialize(ctx, redisConnectAttempts); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
