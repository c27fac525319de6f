// Package notify buffers user-facing cart messages until the UI layer shows them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

// DefaultFeedSize bounds pending messages per session; older ones are dropped first.
const DefaultFeedSize = 20

// Notification is one pending toast.
type Notification struct {
	Level   string
	Message string
	At      time.Time
}

// Feed is the Notifier of a single session.
type Feed struct {
	mu      sync.Mutex
	pending []Notification
	size    int
	now     func() time.Time
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, now: time.Now}
}

func (f *Feed) NotifyError(_ context.Context, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == f.size {
		f.pending = f.pending[1:]
	}
	f.pending = append(f.pending, Notification{Level: "error", Message: message, At: f.now().UTC()})
}

// Drain returns and forgets the pending notifications, oldest first.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Feeds hands out one Feed per session. Feeds live as long as their session
// is resident; wire Forget as the session eviction hook.
type Feeds struct {
	feeds sync.Map
	size  int
}

func NewFeeds(size int) *Feeds {
	return &Feeds{size: size}
}

// For returns the feed of the session, creating it on first use.
func (f *Feeds) For(sessionID string) *Feed {
	if existing, ok := f.feeds.Load(sessionID); ok {
		return existing.(*Feed)
	}
	feed, _ := f.feeds.LoadOrStore(sessionID, NewFeed(f.size))
	return feed.(*Feed)
}

// Forget drops the feed of the session and its pending notifications.
func (f *Feeds) Forget(sessionID string) {
	f.feeds.Delete(sessionID)
}

// Len reports how many session feeds are held.
func (f *Feeds) Len() int {
	n := 0
	f.feeds.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var _ ports.Notifier = (*Feed)(nil)
