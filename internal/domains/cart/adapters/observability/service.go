package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	cartdomain "github.com/Apurer/storefront-core/internal/domains/cart/domain"
	cartports "github.com/Apurer/storefront-core/internal/domains/cart/ports"
)

const tracerName = "github.com/Apurer/storefront-core/internal/domains/cart/adapters/observability/service"

// Service decorates the cart store with tracing, logging, and metrics.
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

// New wraps the cart store.
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

func (s *Service) GetCart(ctx context.Context) (cartdomain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartStore.GetCart")
	defer span.End()

	cart, err := s.inner.GetCart(ctx)
	if err != nil {
		return cartdomain.Cart{}, s.handleError(ctx, span, err, "failed to load cart")
	}
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Items)))
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, productID string, quantity int, variantID string) error {
	attrs := []attribute.KeyValue{attribute.String("product.id", productID), attribute.Int("cart.quantity", quantity)}
	if variantID != "" {
		attrs = append(attrs, attribute.String("product.variant_id", variantID))
	}
	ctx, span := s.tracer.Start(ctx, "CartStore.AddItem", trace.WithAttributes(attrs...))
	defer span.End()

	s.logInfo(ctx, "adding cart item", slog.String("product.id", productID), slog.Int("quantity", quantity))
	if err := s.inner.AddItem(ctx, productID, quantity, variantID); err != nil {
		return s.handleError(ctx, span, err, "failed to add cart item", slog.String("product.id", productID))
	}
	s.metrics.recordMutation(ctx, "add")
	return nil
}

func (s *Service) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "CartStore.UpdateItem",
		trace.WithAttributes(attribute.String("cart.item_id", itemID), attribute.Int("cart.quantity", quantity)))
	defer span.End()

	s.logInfo(ctx, "updating cart item", slog.String("cart.item_id", itemID), slog.Int("quantity", quantity))
	if err := s.inner.UpdateItem(ctx, itemID, quantity); err != nil {
		return s.handleError(ctx, span, err, "failed to update cart item", slog.String("cart.item_id", itemID))
	}
	s.metrics.recordMutation(ctx, "update")
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	ctx, span := s.tracer.Start(ctx, "CartStore.RemoveItem", trace.WithAttributes(attribute.String("cart.item_id", itemID)))
	defer span.End()

	s.logInfo(ctx, "removing cart item", slog.String("cart.item_id", itemID))
	if err := s.inner.RemoveItem(ctx, itemID); err != nil {
		return s.handleError(ctx, span, err, "failed to remove cart item", slog.String("cart.item_id", itemID))
	}
	s.metrics.recordMutation(ctx, "remove")
	return nil
}

func (s *Service) Clear(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CartStore.Clear")
	defer span.End()

	s.logInfo(ctx, "clearing cart")
	if err := s.inner.Clear(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to clear cart")
	}
	s.metrics.recordMutation(ctx, "clear")
	return nil
}

func (s *Service) GetCount(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CartStore.GetCount")
	defer span.End()

	n, err := s.inner.GetCount(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to load cart count")
	}
	span.SetAttributes(attribute.Int("cart.count", n))
	return n, nil
}

func (s *Service) TransferToUser(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "CartStore.TransferToUser")
	defer span.End()

	if err := s.inner.TransferToUser(ctx); err != nil {
		return s.handleError(ctx, span, err, "failed to transfer guest cart")
	}
	s.metrics.recordTransfer(ctx)
	s.logInfo(ctx, "guest cart transfer settled")
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	mutations metric.Int64Counter
	transfers metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	mutations, _ := m.Int64Counter("cart.store.mutations", metric.WithDescription("Number of confirmed cart mutations"))
	transfers, _ := m.Int64Counter("cart.store.transfers", metric.WithDescription("Number of settled guest cart transfers"))
	return serviceMetrics{mutations: mutations, transfers: transfers}
}

func (m serviceMetrics) recordMutation(ctx context.Context, kind string) {
	if m.mutations != nil {
		m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("cart.mutation", kind)))
	}
}

func (m serviceMetrics) recordTransfer(ctx context.Context) {
	if m.transfers != nil {
		m.transfers.Add(ctx, 1)
	}
}

var _ cartports.Service = (*Service)(nil)
