package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartmemory "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/memory"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

// gatedInventory parks Stock lookups of one product until release is closed.
type gatedInventory struct {
	*cartmemory.Inventory
	gated   domain.ProductID
	entered chan struct{}
	release chan struct{}
}

func newGatedInventory(gated domain.ProductID) *gatedInventory {
	return &gatedInventory{
		Inventory: cartmemory.NewInventory(),
		gated:     gated,
		entered:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
}

func (g *gatedInventory) Stock(ctx context.Context, id domain.ProductID) (domain.Stock, error) {
	if id == g.gated {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Inventory.Stock(ctx, id)
}

type buildCounter struct {
	mu     sync.Mutex
	builds map[string]int
}

func (b *buildCounter) factory(inv ports.InventoryService, storage ports.PersistentStore) Factory {
	b.builds = map[string]int{}
	return func(ctx context.Context, sessionID string) (ports.Service, error) {
		b.mu.Lock()
		b.builds[sessionID]++
		b.mu.Unlock()
		return NewCartStore(ctx, inv, storage, nil, WithStorageKey(StorageKey(sessionID))), nil
	}
}

func (b *buildCounter) count(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds[sessionID]
}

func TestSessions_ReusesOpenSession(t *testing.T) {
	counter := &buildCounter{}
	sessions := NewSessions(counter.factory(cartmemory.NewDemoInventory(), cartmemory.NewStore()), 0)
	ctx := context.Background()

	first, release, err := sessions.Open(ctx, "abc")
	require.NoError(t, err)
	release()
	release()
	second, release, err := sessions.Open(ctx, " abc ")
	require.NoError(t, err)
	release()
	require.Same(t, first, second)
	require.Equal(t, 1, counter.count("abc"))

	_, _, err = sessions.Open(ctx, "  ")
	require.ErrorIs(t, err, ErrEmptySession)
}

func TestSessions_EvictedSessionIsRestored(t *testing.T) {
	sessions := NewSessions((&buildCounter{}).factory(cartmemory.NewDemoInventory(), cartmemory.NewStore()), 1)
	ctx := context.Background()

	a, release, err := sessions.Open(ctx, "a")
	require.NoError(t, err)
	a.AddItem(ctx, 2)
	release()

	_, release, err = sessions.Open(ctx, "b")
	require.NoError(t, err)
	release()
	require.Equal(t, 1, sessions.Len())

	reopened, release, err := sessions.Open(ctx, "a")
	require.NoError(t, err)
	defer release()
	require.NotSame(t, a, reopened)
	require.Equal(t, 1, reopened.Cart(ctx).AmountOf(2))
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	sessions := NewSessions((&buildCounter{}).factory(cartmemory.NewDemoInventory(), cartmemory.NewStore()), 2,
		WithEvictHook(func(id string) { evicted = append(evicted, id) }))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a", "c"} {
		_, release, err := sessions.Open(ctx, id)
		require.NoError(t, err)
		release()
	}

	require.Equal(t, []string{"b"}, evicted)
	require.Equal(t, 2, sessions.Len())
}

func TestSessions_InFlightSessionIsNotEvicted(t *testing.T) {
	inv := newGatedInventory(1)
	inv.Put(product(1), 5)
	inv.Put(product(2), 5)
	storage := cartmemory.NewStore()
	counter := &buildCounter{}
	sessions := NewSessions(counter.factory(inv, storage), 1)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc, release, err := sessions.Open(ctx, "a")
		if !assert.NoError(t, err) {
			return
		}
		defer release()
		svc.AddItem(ctx, 1)
	}()
	<-inv.entered

	// Opening another session while "a" is mid-mutation must not drop "a".
	_, release, err := sessions.Open(ctx, "b")
	require.NoError(t, err)
	release()

	a, release, err := sessions.Open(ctx, "a")
	require.NoError(t, err)
	a.AddItem(ctx, 2)
	release()

	close(inv.release)
	<-done

	require.Equal(t, 1, counter.count("a"))
	require.Equal(t, 1, sessions.Len())

	raw, found, err := storage.Get(ctx, StorageKey("a"))
	require.NoError(t, err)
	require.True(t, found)
	persisted, err := DecodeCart(raw)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	require.Equal(t, 1, persisted.AmountOf(1))
	require.Equal(t, 1, persisted.AmountOf(2))
	require.Len(t, a.Cart(ctx), 2)
}

func TestSessions_BuildRunsOutsideLock(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	var mu sync.Mutex
	builds := map[string]int{}
	storage := cartmemory.NewStore()
	sessions := NewSessions(func(ctx context.Context, sessionID string) (ports.Service, error) {
		mu.Lock()
		builds[sessionID]++
		mu.Unlock()
		if sessionID == "slow" {
			close(started)
			<-unblock
		}
		return NewCartStore(ctx, cartmemory.NewDemoInventory(), storage, nil, WithStorageKey(StorageKey(sessionID))), nil
	}, 0)
	ctx := context.Background()

	results := make(chan ports.Service, 2)
	var wg sync.WaitGroup
	open := func() {
		defer wg.Done()
		svc, release, err := sessions.Open(ctx, "slow")
		if assert.NoError(t, err) {
			release()
		}
		results <- svc
	}
	wg.Add(1)
	go open()
	<-started
	wg.Add(1)
	go open()

	_, release, err := sessions.Open(ctx, "fast")
	require.NoError(t, err)
	release()

	close(unblock)
	wg.Wait()
	close(results)
	first, second := <-results, <-results
	require.NotNil(t, first)
	require.Same(t, first, second)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, builds["slow"])
}

func TestSessions_WaiterHonoursContext(t *testing.T) {
	unblock := make(chan struct{})
	started := make(chan struct{})
	sessions := NewSessions(func(ctx context.Context, sessionID string) (ports.Service, error) {
		close(started)
		<-unblock
		return NewCartStore(ctx, cartmemory.NewDemoInventory(), cartmemory.NewStore(), nil), nil
	}, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, release, err := sessions.Open(context.Background(), "x")
		if assert.NoError(t, err) {
			release()
		}
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := sessions.Open(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)

	close(unblock)
	<-done
	require.Equal(t, 1, sessions.Len())
}

func TestSessions_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	sessions := NewSessions(func(context.Context, string) (ports.Service, error) {
		return nil, boom
	}, 0)
	_, _, err := sessions.Open(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	require.Zero(t, sessions.Len())
}
