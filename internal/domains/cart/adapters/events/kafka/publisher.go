package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	cartapp "github.com/Th0mes/ignite-cart/internal/domains/cart/application"
	cartdomain "github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

const (
	DefaultTopic = "cart.events"

	batchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartChanged is the message value written for every committed mutation.
type CartChanged struct {
	Session    string          `json:"session"`
	Operation  string          `json:"operation"`
	ProductID  int64           `json:"productId"`
	Cart       json.RawMessage `json:"cart"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Publisher writes cart events to a Kafka topic keyed by session, so every
// event of a session lands on the same partition.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher connects an async writer to brokers: Publish only enqueues and
// delivery failures are logged from the writer's completion callback.
// Caller closes it to flush pending batches.
func NewPublisher(brokers []string, topic string, opts ...Option) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	p := &Publisher{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

func (p *Publisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		p.logger.LogAttrs(context.Background(), slog.LevelWarn, "cart event not delivered",
			slog.String("cart.session", string(msg.Key)),
			slog.String("error", err.Error()))
	}
}

func (p *Publisher) Publish(ctx context.Context, event cartdomain.Event, snapshot cartdomain.Cart) error {
	cart, err := cartapp.EncodeCart(snapshot)
	if err != nil {
		return err
	}
	value, err := json.Marshal(CartChanged{
		Session:    event.SessionID(),
		Operation:  event.EventName(),
		ProductID:  int64(event.Product()),
		Cart:       json.RawMessage(cart),
		OccurredAt: event.OccurredAt(),
	})
	if err != nil {
		return fmt.Errorf("encode cart event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(event.SessionID()),
		Value:   value,
		Headers: injectHeaders(ctx, nil),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write cart event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func injectHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

var _ cartports.EventPublisher = (*Publisher)(nil)
