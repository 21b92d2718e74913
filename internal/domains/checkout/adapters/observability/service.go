package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

const tracerName = "github.com/Apurer/storefront-core/internal/domains/checkout/adapters/observability/service"

// Service decorates a checkout session with tracing, logging, and metrics.
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

func (s *Service) Step() domain.Step {
	return s.inner.Step()
}

func (s *Service) Next(details domain.Details) error {
	from := s.inner.Step()
	if err := s.inner.Next(details); err != nil {
		s.logInfo(context.Background(), "checkout step rejected", slog.String("checkout.step", from.String()), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *Service) Back() error {
	return s.inner.Back()
}

func (s *Service) GoTo(target domain.Step, details domain.Details) error {
	from := s.inner.Step()
	if err := s.inner.GoTo(target, details); err != nil {
		s.logInfo(context.Background(), "checkout step rejected",
			slog.String("checkout.step", from.String()), slog.String("checkout.target", target.String()), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *Service) Submit(ctx context.Context, details domain.Details) (ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout.Submit", trace.WithAttributes(
		attribute.String("checkout.payment_method", string(details.PaymentMethod)),
		attribute.Bool("checkout.different_shipping", details.UseDifferentShipping),
	))
	defer span.End()

	s.logInfo(ctx, "submitting order", slog.String("payment_method", string(details.PaymentMethod)))
	order, err := s.inner.Submit(ctx, details)
	if err != nil {
		if errors.Is(err, sharederrors.ErrValidation) {
			s.metrics.recordRejection(ctx)
			span.SetAttributes(attribute.Bool("checkout.rejected", true))
			s.logInfo(ctx, "order submission rejected", slog.String("error", err.Error()))
			return ordersdomain.Order{}, err
		}
		return ordersdomain.Order{}, s.handleError(ctx, span, err, "failed to submit order")
	}
	s.metrics.recordSubmission(ctx, string(details.PaymentMethod))
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logInfo(ctx, "order submitted", slog.String("order.id", order.ID))
	return order, nil
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
	submitted metric.Int64Counter
	rejected  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	submitted, _ := m.Int64Counter("checkout.orders_submitted", metric.WithDescription("Number of orders placed through checkout"))
	rejected, _ := m.Int64Counter("checkout.submissions_rejected", metric.WithDescription("Number of submissions rejected by local validation"))
	return serviceMetrics{submitted: submitted, rejected: rejected}
}

func (m serviceMetrics) recordSubmission(ctx context.Context, method string) {
	if m.submitted != nil {
		m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("checkout.payment_method", method)))
	}
}

func (m serviceMetrics) recordRejection(ctx context.Context) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
