package cart

import (
	"context"
	"sync"
	"time"

	domcart "example.com/gomarket-cart/internal/domain/cart"
	"example.com/gomarket-cart/internal/platform/logger"
)

// writer persists the newest scheduled state. A schedule that arrives while a
// save is running replaces any state still waiting, so bursts of mutations
// collapse into one write and completed writes land in mutation order.
type writer struct {
	repo    domcart.Repository
	log     *logger.Logger
	timeout time.Duration

	mu        sync.Mutex
	pending   []domcart.Product
	queued    uint64
	attempted uint64
	lastErr   error
	progress  chan struct{}

	wake chan struct{}
}

func newWriter(repo domcart.Repository, log *logger.Logger, timeout time.Duration) *writer {
	return &writer{
		repo:     repo,
		log:      log,
		timeout:  timeout,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

func (w *writer) schedule(products []domcart.Product) {
	w.mu.Lock()
	w.pending = products
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}
		w.drain(ctx)
	}
}

func (w *writer) drain(ctx context.Context) {
	for ctx.Err() == nil {
		w.mu.Lock()
		if w.attempted == w.queued {
			w.mu.Unlock()
			return
		}
		products, version := w.pending, w.queued
		w.pending = nil
		w.mu.Unlock()

		err := w.save(ctx, products)

		w.mu.Lock()
		w.attempted = version
		w.lastErr = err
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

func (w *writer) save(ctx context.Context, products []domcart.Product) error {
	saveCtx, cancel := withTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.repo.Save(saveCtx, products); err != nil {
		w.log.Error("saving cart failed", "error", err, "products", len(products))
		return err
	}
	w.log.Debug("cart saved", "products", len(products))
	return nil
}

func (w *writer) flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if w.attempted >= w.queued {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		progress := w.progress
		w.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
