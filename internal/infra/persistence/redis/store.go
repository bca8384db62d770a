package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"example.com/gomarket-cart/internal/infra/persistence/kv"
	"example.com/gomarket-cart/internal/platform/logger"
)

const (
	maxPingBackoff = 30 * time.Second
	pingTimeout    = 5 * time.Second
)

type Store struct {
	rdb *goredis.Client
	log *logger.Logger
}

// New accepts either a redis:// URL or a bare host[:port]; the port defaults
// to 6379.
func New(addr string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	opts, err := goredis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		opts = &goredis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 1,
		}
	}
	return &Store{
		rdb: goredis.NewClient(opts),
		log: log.With("service", "RedisStore"),
	}
}

// Initialize pings until the server answers, backing off exponentially
// between attempts.
func (s *Store) Initialize(ctx context.Context, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = s.Ping(ctx); err == nil {
			s.log.Info("redis ready", "attempt", i+1)
			return nil
		}
		if i == attempts-1 {
			break
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > maxPingBackoff {
			backoff = maxPingBackoff
		}
		s.log.Warn("redis ping failed, retrying", "attempt", i+1, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis not reachable after %d attempts: %w", attempts, err)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.rdb.Ping(pingCtx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
