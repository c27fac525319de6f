package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cartdomain "github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

const tracerName = "github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
type Service struct {
	inner   cartports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core cart service.
func New(inner cartports.Service, opts ...Option) cartports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Cart(ctx context.Context) cartdomain.Cart {
	ctx, span := s.tracer.Start(ctx, "CartService.Cart")
	defer span.End()

	cart := s.inner.Cart(ctx)
	span.SetAttributes(attribute.Int("cart.items", len(cart)), attribute.Int("cart.quantity", cart.Quantity()))
	return cart
}

func (s *Service) AddItem(ctx context.Context, id cartdomain.ProductID) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem", trace.WithAttributes(attribute.Int64("product.id", int64(id))))
	defer span.End()

	s.logDebug(ctx, "adding product to cart", slog.Int64("product.id", int64(id)))
	s.inner.AddItem(ctx, id)
	s.metrics.recordMutation(ctx, "add_item")
}

func (s *Service) RemoveItem(ctx context.Context, id cartdomain.ProductID) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem", trace.WithAttributes(attribute.Int64("product.id", int64(id))))
	defer span.End()

	s.logDebug(ctx, "removing product from cart", slog.Int64("product.id", int64(id)))
	s.inner.RemoveItem(ctx, id)
	s.metrics.recordMutation(ctx, "remove_item")
}

func (s *Service) SetQuantity(ctx context.Context, id cartdomain.ProductID, amount int) {
	ctx, span := s.tracer.Start(ctx, "CartService.SetQuantity",
		trace.WithAttributes(attribute.Int64("product.id", int64(id)), attribute.Int("cart.amount", amount)))
	defer span.End()

	s.logDebug(ctx, "updating product amount", slog.Int64("product.id", int64(id)), slog.Int("cart.amount", amount))
	s.inner.SetQuantity(ctx, id, amount)
	s.metrics.recordMutation(ctx, "set_quantity")
}

func (s *Service) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// Notifier decorates a notifier so every user-facing error is also recorded
// as an event on the active span, logged and counted. Notifications are
// expected outcomes such as an exhausted stock, so the span status is left
// alone; system faults are logged at error level by the cart store.
type Notifier struct {
	inner   cartports.Notifier
	logger  *slog.Logger
	metrics serviceMetrics
}

// NewNotifier wraps inner. A nil meter disables the counter.
func NewNotifier(inner cartports.Notifier, logger *slog.Logger, m metric.Meter) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{inner: inner, logger: logger, metrics: newServiceMetrics(m)}
}

func (n *Notifier) NotifyError(ctx context.Context, message string) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("cart.notification", trace.WithAttributes(attribute.String("message", message)))

	n.logger.LogAttrs(ctx, slog.LevelInfo, "cart notification raised", slog.String("message", message))
	n.metrics.recordNotification(ctx, message)
	if n.inner != nil {
		n.inner.NotifyError(ctx, message)
	}
}

type serviceMetrics struct {
	mutations     metric.Int64Counter
	notifications metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	mutations, _ := m.Int64Counter("cart.service.mutations", metric.WithDescription("Number of cart mutations attempted"))
	notifications, _ := m.Int64Counter("cart.service.notifications", metric.WithDescription("Number of error notifications raised"))
	return serviceMetrics{mutations: mutations, notifications: notifications}
}

func (m serviceMetrics) recordMutation(ctx context.Context, op string) {
	if m.mutations != nil {
		m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("cart.operation", op)))
	}
}

func (m serviceMetrics) recordNotification(ctx context.Context, message string) {
	if m.notifications != nil {
		m.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("message", message)))
	}
}

var (
	_ cartports.Service  = (*Service)(nil)
	_ cartports.Notifier = (*Notifier)(nil)
)
