package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	domcart "example.com/gomarket-cart/internal/domain/cart"
	"example.com/gomarket-cart/internal/platform/logger"
)

const (
	DefaultLoadTimeout = 10 * time.Second
	DefaultSaveTimeout = 5 * time.Second
)

var errAlreadyStarted = errors.New("cart service already started")

type CartRepository interface {
	domcart.Repository
}

type Option func(*Service)

func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) { s.loadTimeout = d }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(s *Service) { s.saveTimeout = d }
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateRunning
	stateClosed
)

// Service owns the cart. Mutations are applied one at a time, published to
// subscribers and handed to a background writer; they wait for the initial
// load so a slow backend never overwrites an early change.
type Service struct {
	repo        CartRepository
	log         *logger.Logger
	loadTimeout time.Duration
	saveTimeout time.Duration

	mu       sync.RWMutex
	state    lifecycle
	products []domcart.Product

	loaded chan struct{}
	writer *writer
	stop   context.CancelFunc
	wg     sync.WaitGroup

	subsMu  sync.Mutex
	subs    map[int]chan []domcart.Product
	nextSub int
}

func NewService(repo CartRepository, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:        repo,
		log:         log.With("component", "cart"),
		loadTimeout: DefaultLoadTimeout,
		saveTimeout: DefaultSaveTimeout,
		products:    []domcart.Product{},
		loaded:      make(chan struct{}),
		subs:        make(map[int]chan []domcart.Product),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = newWriter(repo, s.log, s.saveTimeout)
	return s
}

// Start begins loading the persisted cart and returns without waiting for it.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return domcart.ErrUninitializedContext
	}
	s.mu.Lock()
	if s.state != stateNew {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.state = stateRunning
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stop = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.load(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.writer.run(runCtx)
	}()
	return nil
}

// Ready is closed once the initial load has finished, successfully or not.
func (s *Service) Ready() <-chan struct{} {
	return s.loaded
}

func (s *Service) load(ctx context.Context) {
	defer close(s.loaded)

	loadCtx, cancel := withTimeout(ctx, s.loadTimeout)
	defer cancel()

	products, err := s.repo.Load(loadCtx)
	if err != nil {
		if errors.Is(err, domcart.ErrCorruptPersistedState) {
			s.log.Warn("persisted cart is corrupt, starting empty", "error", err)
		} else {
			s.log.Error("loading cart failed, starting empty", "error", err)
		}
		return
	}

	products, removed := domcart.Normalize(products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	snapshot := domcart.Clone(products)
	s.publishLocked(snapshot)
	if removed > 0 {
		s.log.Warn("dropped invalid persisted cart entries", "removed", removed)
		s.writer.schedule(snapshot)
	}
	s.log.Info("cart loaded", "products", len(products))
}

func (s *Service) AddToCart(ctx context.Context, item domcart.ProductInput) error {
	return s.mutate(ctx, "add", func(products []domcart.Product) []domcart.Product {
		return domcart.Add(products, item)
	})
}

func (s *Service) Increment(ctx context.Context, id string) error {
	return s.mutate(ctx, "increment", func(products []domcart.Product) []domcart.Product {
		return domcart.Increment(products, id)
	})
}

func (s *Service) Decrement(ctx context.Context, id string) error {
	return s.mutate(ctx, "decrement", func(products []domcart.Product) []domcart.Product {
		return domcart.Decrement(products, id)
	})
}

// Products returns a copy of the latest state. Before the initial load
// finishes that is the empty cart.
func (s *Service) Products() ([]domcart.Product, error) {
	if s == nil {
		return nil, domcart.ErrUninitializedContext
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateRunning {
		return nil, domcart.ErrUninitializedContext
	}
	return domcart.Clone(s.products), nil
}

func (s *Service) mutate(ctx context.Context, op string, next func([]domcart.Product) []domcart.Product) error {
	if err := s.waitLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateRunning {
		return domcart.ErrUninitializedContext
	}

	s.products = next(s.products)
	snapshot := domcart.Clone(s.products)
	s.publishLocked(snapshot)
	s.writer.schedule(snapshot)
	s.log.Debug("cart updated", "op", op, "products", len(snapshot))
	return nil
}

func (s *Service) waitLoaded(ctx context.Context) error {
	if s == nil {
		return domcart.ErrUninitializedContext
	}
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state != stateRunning {
		return domcart.ErrUninitializedContext
	}

	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that receives every published state. Only the
// newest state is buffered; a slow reader skips intermediate ones.
func (s *Service) Subscribe() (<-chan []domcart.Product, func()) {
	ch := make(chan []domcart.Product, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

// publishLocked requires s.mu, which makes it the only sender.
func (s *Service) publishLocked(snapshot []domcart.Product) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		msg := domcart.Clone(snapshot)
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// Flush waits until every state scheduled so far has been written or has
// failed. It returns the error of the latest write attempt.
func (s *Service) Flush(ctx context.Context) error {
	if s == nil {
		return domcart.ErrUninitializedContext
	}
	return s.writer.flush(ctx)
}

// Close rejects further operations, drains the pending write and stops the
// background goroutines.
func (s *Service) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	prev := s.state
	s.state = stateClosed
	s.mu.Unlock()
	if prev != stateRunning {
		return nil
	}

	flushErr := s.writer.flush(ctx)
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if flushErr == nil {
			flushErr = ctx.Err()
		}
	}

	s.subsMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()

	s.log.Info("cart service stopped")
	return flushErr
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
