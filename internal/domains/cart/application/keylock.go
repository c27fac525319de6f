package application

import (
	"sync"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

// productLocks hands out one mutex per product id and frees it once unused.
type productLocks struct {
	mu    sync.Mutex
	locks map[domain.ProductID]*productLock
}

type productLock struct {
	sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{locks: map[domain.ProductID]*productLock{}}
}

// Lock blocks until the product is free and returns the matching unlock.
func (p *productLocks) Lock(id domain.ProductID) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &productLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}

func (p *productLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
