package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	cartdomain "github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_WritesCartChanged(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	writer := &fakeWriter{}
	pub := &Publisher{writer: writer}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := cartdomain.Cart{{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: decimal.RequireFromString("219.9"), Amount: 2}}

	err := pub.Publish(ctx, cartdomain.ItemAdded{
		BaseEvent: cartdomain.BaseEvent{Session: "abc", Timestamp: at},
		ProductID: 3,
		Amount:    2,
	}, snapshot)
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "abc", string(msg.Key))

	var got CartChanged
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "cart.item.added", got.Operation)
	assert.Equal(t, int64(3), got.ProductID)
	assert.True(t, at.Equal(got.OccurredAt))
	assert.JSONEq(t, `[{"id":3,"title":"Tênis Adidas Duramo Lite 2.0","price":"219.9","image":"","amount":2}]`, string(got.Cart))

	var traceparent string
	for _, h := range msg.Headers {
		if h.Key == "traceparent" {
			traceparent = string(h.Value)
		}
	}
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestPublisher_WrapsWriteError(t *testing.T) {
	pub := &Publisher{writer: &fakeWriter{err: errors.New("broker down")}}
	err := pub.Publish(context.Background(), cartdomain.ItemRemoved{ProductID: 1}, cartdomain.Cart{})
	require.ErrorContains(t, err, "broker down")
}

func TestNewPublisher_AsyncWriterKeyedBySession(t *testing.T) {
	pub := NewPublisher([]string{"localhost:9092"}, "")
	w, ok := pub.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, w.Topic)
	assert.True(t, w.Async)
	assert.Equal(t, batchTimeout, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	require.NotNil(t, w.Completion)
}

func TestPublisher_LogsUndeliveredEvents(t *testing.T) {
	var out bytes.Buffer
	pub := NewPublisher([]string{"localhost:9092"}, "carts", WithLogger(slog.New(slog.NewTextHandler(&out, nil))))
	w := pub.writer.(*kafka.Writer)

	w.Completion([]kafka.Message{{Key: []byte("abc")}}, nil)
	assert.Empty(t, out.String())

	w.Completion([]kafka.Message{{Key: []byte("abc")}}, errors.New("leader not available"))
	assert.Contains(t, out.String(), "cart event not delivered")
	assert.Contains(t, out.String(), "cart.session=abc")
	assert.Contains(t, out.String(), "leader not available")
}
