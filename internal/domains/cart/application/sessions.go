package application

import (
	"container/list"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

// DefaultSessionCapacity bounds how many idle session carts stay resident.
const DefaultSessionCapacity = 10000

var ErrEmptySession = errors.New("session id is required")

// Factory builds the cart service of a session on first use.
type Factory func(ctx context.Context, sessionID string) (ports.Service, error)

// Sessions caches one cart service per session with least-recently-used
// eviction. A session stays pinned from Open until its release runs and is
// never evicted while pinned, so at most one CartStore exists per storage
// key and an evicted session is rebuilt from its last committed state.
//
// Pinned sessions may push residency above capacity; the excess is trimmed
// as they are released.
type Sessions struct {
	mu       sync.Mutex
	factory  Factory
	open     map[string]*sessionEntry
	recent   *list.List
	capacity int
	onEvict  func(sessionID string)
}

type sessionEntry struct {
	id    string
	svc   ports.Service
	err   error
	ready chan struct{}
	refs  int
	elem  *list.Element
}

type SessionsOption func(*Sessions)

// WithEvictHook runs fn, under the sessions lock, for every evicted session.
// It must not call back into Sessions.
func WithEvictHook(fn func(sessionID string)) SessionsOption {
	return func(s *Sessions) {
		s.onEvict = fn
	}
}

func NewSessions(factory Factory, capacity int, opts ...SessionsOption) *Sessions {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	s := &Sessions{
		factory:  factory,
		open:     map[string]*sessionEntry{},
		recent:   list.New(),
		capacity: capacity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// StorageKey namespaces DefaultStorageKey per session.
func StorageKey(sessionID string) string {
	return sessionID + ":" + DefaultStorageKey
}

// Open returns the cart service of the session, building it when needed, and
// pins it until release is called. release is idempotent.
func (s *Sessions) Open(ctx context.Context, sessionID string) (ports.Service, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, ErrEmptySession
	}

	s.mu.Lock()
	e, ok := s.open[sessionID]
	if ok {
		e.refs++
		s.recent.MoveToFront(e.elem)
		s.mu.Unlock()
		return s.await(ctx, e)
	}
	e = &sessionEntry{id: sessionID, ready: make(chan struct{}), refs: 1}
	e.elem = s.recent.PushFront(e)
	s.open[sessionID] = e
	s.evictLocked()
	s.mu.Unlock()

	// Built outside the lock: restoring a cart may hit the network.
	e.svc, e.err = s.factory(ctx, sessionID)
	close(e.ready)
	if e.err != nil {
		s.mu.Lock()
		e.refs--
		s.removeLocked(e)
		s.mu.Unlock()
		return nil, nil, e.err
	}
	return e.svc, s.releaser(e), nil
}

func (s *Sessions) await(ctx context.Context, e *sessionEntry) (ports.Service, func(), error) {
	release := s.releaser(e)
	select {
	case <-e.ready:
	case <-ctx.Done():
		release()
		return nil, nil, ctx.Err()
	}
	if e.err != nil {
		release()
		return nil, nil, e.err
	}
	return e.svc, release, nil
}

func (s *Sessions) releaser(e *sessionEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			e.refs--
			s.evictLocked()
		})
	}
}

// evictLocked drops least recently used idle sessions until residency fits.
func (s *Sessions) evictLocked() {
	for elem := s.recent.Back(); elem != nil && len(s.open) > s.capacity; {
		prev := elem.Prev()
		if e := elem.Value.(*sessionEntry); e.refs == 0 {
			s.removeLocked(e)
			if s.onEvict != nil {
				s.onEvict(e.id)
			}
		}
		elem = prev
	}
}

func (s *Sessions) removeLocked(e *sessionEntry) {
	if s.open[e.id] != e {
		return
	}
	delete(s.open, e.id)
	s.recent.Remove(e.elem)
}

// Len reports how many sessions are resident.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

var _ ports.Sessions = (*Sessions)(nil)
