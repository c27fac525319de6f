package memory

import (
	"context"
	"sync"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

var _ ports.PersistentStore = (*Store)(nil)

// Store is an in-memory PersistentStore implementation.
type Store struct {
	values sync.Map
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values.Load(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.values.Store(key, value)
	return nil
}
