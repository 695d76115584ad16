package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

const tracerName = "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/observability/service"

// Service decorates the pedidos service with tracing, logging, and metrics.
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

// New wraps the core pedidos service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
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

func (s *Service) CreateOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.CreateOrder", trace.WithAttributes(
		attribute.Int64("order.supplier_id", draft.SupplierID),
		attribute.Int64("order.created_by", draft.CreatedBy),
		attribute.Int("order.lines", len(draft.Lines)),
	))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int64("order.supplier_id", draft.SupplierID), slog.Int("order.lines", len(draft.Lines)))
	result, err := s.inner.CreateOrder(ctx, draft)
	if err != nil {
		attrs := []slog.Attr{slog.Int64("order.supplier_id", draft.SupplierID)}
		if result != nil {
			// Persisted but the stock-in phase failed.
			attrs = append(attrs, slog.Int64("order.id", result.ID))
			span.SetAttributes(attribute.Int64("order.id", result.ID))
		}
		return result, s.handleError(ctx, span, err, "failed to create order", attrs...)
	}
	span.SetAttributes(attribute.Int64("order.id", result.ID))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.ID), slog.String("total", result.Total.String()))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) UpdateOrder(ctx context.Context, id int64, draft domain.Draft) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.UpdateOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "updating order", slog.Int64("order.id", id))
	result, err := s.inner.UpdateOrder(ctx, id, draft)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order", slog.Int64("order.id", id))
	}
	s.logInfo(ctx, "order updated", slog.Int64("order.id", id))
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "PedidosService.DeleteOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting order", slog.Int64("order.id", id))
	if err := s.inner.DeleteOrder(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "order deleted", slog.Int64("order.id", id))
	return nil
}

func (s *Service) ChangeStatus(ctx context.Context, input ports.ChangeStatusInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.ChangeStatus", trace.WithAttributes(
		attribute.Int64("order.id", input.OrderID),
		attribute.String("order.status.target", string(input.Status)),
		attribute.Int64("user.id", input.UserID),
	))
	defer span.End()

	s.logInfo(ctx, "changing order status", slog.Int64("order.id", input.OrderID), slog.String("status", string(input.Status)))
	result, err := s.inner.ChangeStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to change order status",
			slog.Int64("order.id", input.OrderID), slog.String("status", string(input.Status)))
	}
	s.metrics.recordStatusChange(ctx, result.Status)
	s.logInfo(ctx, "order status changed", slog.Int64("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) History(ctx context.Context, orderID int64) ([]domain.HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "PedidosService.History", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.History(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order history", slog.Int64("order.id", orderID))
	}
	span.SetAttributes(attribute.Int("history.count", len(result)))
	return result, nil
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
	ordersCreated metric.Int64Counter
	ordersDeleted metric.Int64Counter
	statusChanges metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("pedidos.service.orders_created", metric.WithDescription("Number of supplier orders created"))
	ordersDeleted, _ := m.Int64Counter("pedidos.service.orders_deleted", metric.WithDescription("Number of supplier orders deleted"))
	statusChanges, _ := m.Int64Counter("pedidos.service.status_changes", metric.WithDescription("Number of order status transitions"))
	return serviceMetrics{ordersCreated: ordersCreated, ordersDeleted: ordersDeleted, statusChanges: statusChanges}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.ordersDeleted != nil {
		m.ordersDeleted.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordStatusChange(ctx context.Context, status domain.Status) {
	if m.statusChanges != nil {
		m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

var _ ports.Service = (*Service)(nil)
