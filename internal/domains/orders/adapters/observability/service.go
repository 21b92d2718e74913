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

	"github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/storefront-core/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
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

func New(inner ports.Service, opts ...Option) ports.Service {
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

func (s *Service) GetOrders(ctx context.Context, q domain.OrderQuery) (domain.Page[domain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetOrders", trace.WithAttributes(
		attribute.Int("page", q.Page), attribute.Int("page_size", q.PageSize), attribute.String("order.status", string(q.Status))))
	defer span.End()

	page, err := s.inner.GetOrders(ctx, q)
	if err != nil {
		return domain.Page[domain.Order]{}, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", page.Count))
	return page, nil
}

func (s *Service) GetOrderDetails(ctx context.Context, id string) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetOrderDetails", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.inner.GetOrderDetails(ctx, id)
	if err != nil {
		return domain.Order{}, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, id, reason string) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.CancelOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.String("order.id", id))
	order, err := s.inner.CancelOrder(ctx, id, reason)
	if err != nil {
		return domain.Order{}, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.id", id))
	}
	s.metrics.recordCancellation(ctx)
	span.SetAttributes(attribute.String("order.status", string(order.Status)))
	return order, nil
}

func (s *Service) TrackOrder(ctx context.Context, id string) (domain.Tracking, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.TrackOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	tracking, err := s.inner.TrackOrder(ctx, id)
	if err != nil {
		return domain.Tracking{}, s.handleError(ctx, span, err, "failed to track order", slog.String("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", string(tracking.Status)), attribute.Int("tracking.events", len(tracking.Events)))
	return tracking, nil
}

func (s *Service) GetPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetPayments", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	payments, err := s.inner.GetPayments(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order payments", slog.String("order.id", orderID))
	}
	return payments, nil
}

func (s *Service) GetPaymentHistory(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Payment], error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetPaymentHistory", trace.WithAttributes(attribute.Int("page", q.Page)))
	defer span.End()

	page, err := s.inner.GetPaymentHistory(ctx, q)
	if err != nil {
		return domain.Page[domain.Payment]{}, s.handleError(ctx, span, err, "failed to list payments")
	}
	return page, nil
}

func (s *Service) CreateReturn(ctx context.Context, req domain.ReturnRequest) (domain.Return, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.CreateReturn", trace.WithAttributes(
		attribute.String("order.item_id", req.OrderItemID), attribute.Int("return.quantity", req.Quantity)))
	defer span.End()

	s.logInfo(ctx, "filing return", slog.String("order.item_id", req.OrderItemID), slog.Int("quantity", req.Quantity))
	created, err := s.inner.CreateReturn(ctx, req)
	if err != nil {
		return domain.Return{}, s.handleError(ctx, span, err, "failed to file return", slog.String("order.item_id", req.OrderItemID))
	}
	s.metrics.recordReturn(ctx, req.Reason)
	span.SetAttributes(attribute.String("return.id", created.ID))
	return created, nil
}

func (s *Service) ListReturns(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Return], error) {
	ctx, span := s.tracer.Start(ctx, "Orders.ListReturns", trace.WithAttributes(attribute.Int("page", q.Page)))
	defer span.End()

	page, err := s.inner.ListReturns(ctx, q)
	if err != nil {
		return domain.Page[domain.Return]{}, s.handleError(ctx, span, err, "failed to list returns")
	}
	return page, nil
}

func (s *Service) GetReturn(ctx context.Context, id string) (domain.Return, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.GetReturn", trace.WithAttributes(attribute.String("return.id", id)))
	defer span.End()

	ret, err := s.inner.GetReturn(ctx, id)
	if err != nil {
		return domain.Return{}, s.handleError(ctx, span, err, "failed to load return", slog.String("return.id", id))
	}
	return ret, nil
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
	cancellations metric.Int64Counter
	returns       metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	cancellations, _ := m.Int64Counter("orders.cancellations", metric.WithDescription("Number of orders cancelled"))
	returns, _ := m.Int64Counter("orders.returns_created", metric.WithDescription("Number of return requests filed"))
	return serviceMetrics{cancellations: cancellations, returns: returns}
}

func (m serviceMetrics) recordCancellation(ctx context.Context) {
	if m.cancellations != nil {
		m.cancellations.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordReturn(ctx context.Context, reason string) {
	if m.returns != nil {
		m.returns.Add(ctx, 1, metric.WithAttributes(attribute.String("return.reason", reason)))
	}
}

var _ ports.Service = (*Service)(nil)
