package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

var _ cartports.PersistentStore = (*Store)(nil)

// Store keeps serialized carts as plain Redis strings.
type Store struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

type Option func(*Store)

// WithTTL expires carts that were not written for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore wires a Redis-backed key-value store. Caller owns the client lifecycle.
func NewStore(rdb goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: "cart:"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.ensureClient(); err != nil {
		return "", false, err
	}
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("cart key is required")
	}
	return s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *Store) ensureClient() error {
	if s == nil || s.rdb == nil {
		return errors.New("redis cart store not configured")
	}
	return nil
}
