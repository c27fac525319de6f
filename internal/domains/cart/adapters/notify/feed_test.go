package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeed_DrainEmptiesQueue(t *testing.T) {
	feed := NewFeed(0)
	feed.NotifyError(context.Background(), "first")
	feed.NotifyError(context.Background(), "second")

	drained := feed.Drain()
	require.Len(t, drained, 2)
	require.Equal(t, "first", drained[0].Message)
	require.Equal(t, "error", drained[0].Level)
	require.Equal(t, "second", drained[1].Message)

	require.Empty(t, feed.Drain())
	require.NotNil(t, feed.Drain())
}

func TestFeed_DropsOldestWhenFull(t *testing.T) {
	feed := NewFeed(2)
	for _, msg := range []string{"a", "b", "c"} {
		feed.NotifyError(context.Background(), msg)
	}
	drained := feed.Drain()
	require.Len(t, drained, 2)
	require.Equal(t, "b", drained[0].Message)
	require.Equal(t, "c", drained[1].Message)
}

func TestFeeds_OnePerSession(t *testing.T) {
	feeds := NewFeeds(5)
	require.Same(t, feeds.For("a"), feeds.For("a"))
	require.NotSame(t, feeds.For("a"), feeds.For("b"))

	feeds.For("a").NotifyError(context.Background(), "only a")
	require.Empty(t, feeds.For("b").Drain())
	require.Len(t, feeds.For("a").Drain(), 1)
}

func TestFeeds_ForgetDropsPending(t *testing.T) {
	feeds := NewFeeds(5)
	feeds.For("a").NotifyError(context.Background(), "stale")
	feeds.For("b")
	require.Equal(t, 2, feeds.Len())

	feeds.Forget("a")
	feeds.Forget("missing")
	require.Equal(t, 1, feeds.Len())
	require.Empty(t, feeds.For("a").Drain())
}
