package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when nothing is stored under the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable byte store addressed by key. Set fully replaces any
// previous value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}
