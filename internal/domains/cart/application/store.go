package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

// DefaultStorageKey is the persistent store key holding the serialized cart.
const DefaultStorageKey = "@RocketShoes:cart"

// CartStore owns the cart of one session and keeps the persistent store in
// sync with every committed mutation.
//
// Mutations on the same product run one at a time. Commits apply their change
// to the latest committed cart, so concurrent mutations never drop each other.
type CartStore struct {
	inventory ports.InventoryService
	storage   ports.PersistentStore
	notifier  ports.Notifier
	events    ports.EventPublisher
	logger    *slog.Logger
	key       string
	session   string
	now       func() time.Time

	mu       sync.RWMutex
	cart     domain.Cart
	products *productLocks
}

type Option func(*CartStore)

func WithLogger(logger *slog.Logger) Option {
	return func(s *CartStore) {
		s.logger = logger
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *CartStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSession tags published events with the owning session.
func WithSession(sessionID string) Option {
	return func(s *CartStore) {
		s.session = sessionID
	}
}

func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *CartStore) {
		if p != nil {
			s.events = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CartStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewCartStore restores the cart persisted under the storage key. Missing,
// unreadable or corrupt values start the session with an empty cart.
func NewCartStore(ctx context.Context, inventory ports.InventoryService, storage ports.PersistentStore, notifier ports.Notifier, opts ...Option) *CartStore {
	s := &CartStore{
		inventory: inventory,
		storage:   storage,
		notifier:  notifier,
		events:    ports.NoopPublisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		key:       DefaultStorageKey,
		now:       time.Now,
		cart:      domain.Cart{},
		products:  newProductLocks(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.notifier == nil {
		s.notifier = ports.NotifierFunc(func(context.Context, string) {})
	}
	s.cart = s.restore(ctx)
	return s
}

func (s *CartStore) restore(ctx context.Context) domain.Cart {
	raw, found, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to read persisted cart, starting empty",
			slog.String("cart.key", s.key), slog.String("error", err.Error()))
		return domain.Cart{}
	}
	if !found {
		return domain.Cart{}
	}
	cart, err := DecodeCart(raw)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "discarding corrupt persisted cart",
			slog.String("cart.key", s.key), slog.String("error", err.Error()))
		return domain.Cart{}
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "cart restored",
		slog.String("cart.key", s.key), slog.Int("cart.items", len(cart)))
	return cart
}

// Cart returns a snapshot of the committed cart.
func (s *CartStore) Cart(_ context.Context) domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// committed is a change awaiting publication once the product lock is released.
type committed struct {
	event    domain.Event
	snapshot domain.Cart
}

// AddItem increments the product amount by one, inserting it when absent.
func (s *CartStore) AddItem(ctx context.Context, id domain.ProductID) {
	change, err := s.withProduct(id, func() (*committed, error) { return s.addItem(ctx, id) })
	s.report(ctx, OpAddItem, id, err)
	s.publish(ctx, change)
}

func (s *CartStore) addItem(ctx context.Context, id domain.ProductID) (*committed, error) {
	existing, found := s.Cart(ctx).Find(id)

	stock, err := s.inventory.Stock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: stock of product %d: %w", ErrExternalService, id, err)
	}
	requested := existing.Amount + 1
	if !stock.Allows(requested) {
		return nil, fmt.Errorf("%w: product %d requested %d, available %d", ErrStockExceeded, id, requested, stock.Amount)
	}

	var mutate func(domain.Cart) (domain.Cart, error)
	if found {
		mutate = func(c domain.Cart) (domain.Cart, error) {
			return c.WithAmount(id, requested, stock)
		}
	} else {
		product, err := s.inventory.Product(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: details of product %d: %w", ErrExternalService, id, mapError(err))
		}
		product.ID = id
		item, err := domain.NewLineItem(product, stock, 1)
		if err != nil {
			return nil, mapError(err)
		}
		mutate = func(c domain.Cart) (domain.Cart, error) {
			return c.Append(item)
		}
	}

	snapshot, err := s.commit(ctx, mutate)
	if err != nil {
		return nil, err
	}
	return &committed{domain.ItemAdded{BaseEvent: s.baseEvent(), ProductID: id, Amount: requested}, snapshot}, nil
}

// RemoveItem drops the product from the cart. Removing an absent product is
// reported, not ignored.
func (s *CartStore) RemoveItem(ctx context.Context, id domain.ProductID) {
	change, err := s.withProduct(id, func() (*committed, error) { return s.removeItem(ctx, id) })
	s.report(ctx, OpRemoveItem, id, err)
	s.publish(ctx, change)
}

func (s *CartStore) removeItem(ctx context.Context, id domain.ProductID) (*committed, error) {
	snapshot, err := s.commit(ctx, func(c domain.Cart) (domain.Cart, error) {
		return c.Without(id)
	})
	if err != nil {
		return nil, err
	}
	return &committed{domain.ItemRemoved{BaseEvent: s.baseEvent(), ProductID: id}, snapshot}, nil
}

// SetQuantity sets the exact amount of a product already in the cart.
// Non-positive amounts are ignored without notice.
func (s *CartStore) SetQuantity(ctx context.Context, id domain.ProductID, amount int) {
	if amount <= 0 {
		s.report(ctx, OpSetQuantity, id, ErrInvalidAmount)
		return
	}
	change, err := s.withProduct(id, func() (*committed, error) { return s.setQuantity(ctx, id, amount) })
	s.report(ctx, OpSetQuantity, id, err)
	s.publish(ctx, change)
}

func (s *CartStore) setQuantity(ctx context.Context, id domain.ProductID, amount int) (*committed, error) {
	stock, err := s.inventory.Stock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: stock of product %d: %w", ErrExternalService, id, err)
	}
	if !stock.Allows(amount) {
		return nil, fmt.Errorf("%w: product %d requested %d, available %d", ErrStockExceeded, id, amount, stock.Amount)
	}

	var previous int
	snapshot, err := s.commit(ctx, func(c domain.Cart) (domain.Cart, error) {
		previous = c.AmountOf(id)
		return c.WithAmount(id, amount, stock)
	})
	if err != nil {
		return nil, err
	}
	return &committed{domain.QuantityChanged{BaseEvent: s.baseEvent(), ProductID: id, From: previous, To: amount}, snapshot}, nil
}

// withProduct runs fn while holding the lock of product id.
func (s *CartStore) withProduct(id domain.ProductID, fn func() (*committed, error)) (*committed, error) {
	unlock := s.products.Lock(id)
	defer unlock()
	return fn()
}

// commit applies mutate to the latest cart, persists the result and only then
// swaps it in, so a failed write leaves the session unchanged.
func (s *CartStore) commit(ctx context.Context, mutate func(domain.Cart) (domain.Cart, error)) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := mutate(s.cart)
	if err != nil {
		return nil, mapError(err)
	}
	payload, err := EncodeCart(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.storage.Set(ctx, s.key, payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.cart = next
	return next.Clone(), nil
}

// publish runs after the product lock is released; a slow broker never
// holds up other mutations of the product.
func (s *CartStore) publish(ctx context.Context, change *committed) {
	if change == nil {
		return
	}
	if err := s.events.Publish(ctx, change.event, change.snapshot); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish cart event",
			slog.String("event", change.event.EventName()),
			slog.Int64("product.id", int64(change.event.Product())),
			slog.String("error", err.Error()))
	}
}

func (s *CartStore) report(ctx context.Context, op Operation, id domain.ProductID, err error) {
	if err == nil {
		return
	}
	level := slog.LevelWarn
	if errors.Is(err, ErrExternalService) || errors.Is(err, ErrPersistence) {
		level = slog.LevelError
	}
	if errors.Is(err, ErrInvalidAmount) {
		level = slog.LevelDebug
	}
	s.logger.LogAttrs(ctx, level, "cart operation rejected",
		slog.String("cart.operation", string(op)),
		slog.Int64("product.id", int64(id)),
		slog.String("error", err.Error()))
	if msg, ok := Notice(op, err); ok {
		s.notifier.NotifyError(ctx, msg)
	}
}

func (s *CartStore) baseEvent() domain.BaseEvent {
	return domain.BaseEvent{Session: s.session, Timestamp: s.now().UTC()}
}

var _ ports.Service = (*CartStore)(nil)
