package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

const tracerName = "github.com/Apurer/farmasync/internal/domains/ventas/adapters/observability/service"

// Service decorates the ventas service with tracing, logging, and metrics.
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

// New wraps the core ventas service.
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

func (s *Service) CreateSale(ctx context.Context, draft domain.Draft) (*domain.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.CreateSale", trace.WithAttributes(
		attribute.Int64("sale.seller_id", draft.SellerID),
		attribute.Int64("sale.client_id", draft.ClientID),
		attribute.Int("sale.lines", len(draft.Lines)),
	))
	defer span.End()

	s.logInfo(ctx, "registering sale", slog.Int64("sale.seller_id", draft.SellerID), slog.Int("sale.lines", len(draft.Lines)))
	result, err := s.inner.CreateSale(ctx, draft)
	if err != nil {
		attrs := []slog.Attr{slog.Int64("sale.seller_id", draft.SellerID)}
		if result != nil {
			// Persisted but a stock exit failed.
			attrs = append(attrs, slog.Int64("sale.id", result.ID))
			span.SetAttributes(attribute.Int64("sale.id", result.ID))
		}
		return result, s.handleError(ctx, span, err, "failed to register sale", attrs...)
	}
	span.SetAttributes(attribute.Int64("sale.id", result.ID))
	s.metrics.recordRegistered(ctx, result)
	s.logInfo(ctx, "sale registered", slog.Int64("sale.id", result.ID), slog.String("total", result.Total.String()))
	return result, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.GetSale", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	result, err := s.inner.GetSale(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load sale", slog.Int64("sale.id", id))
	}
	return result, nil
}

func (s *Service) ListSales(ctx context.Context, filter ports.SaleFilter) ([]*domain.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.ListSales", trace.WithAttributes(filterAttributes(filter)...))
	defer span.End()

	result, err := s.inner.ListSales(ctx, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list sales")
	}
	span.SetAttributes(attribute.Int("sales.count", len(result)))
	return result, nil
}

func (s *Service) UpdateSale(ctx context.Context, id int64, draft domain.Draft) (*domain.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.UpdateSale", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	s.logInfo(ctx, "updating sale", slog.Int64("sale.id", id))
	result, err := s.inner.UpdateSale(ctx, id, draft)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update sale", slog.Int64("sale.id", id))
	}
	s.logInfo(ctx, "sale updated", slog.Int64("sale.id", id), slog.String("total", result.Total.String()))
	return result, nil
}

func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "VentasService.DeleteSale", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting sale", slog.Int64("sale.id", id))
	if err := s.inner.DeleteSale(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete sale", slog.Int64("sale.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "sale deleted", slog.Int64("sale.id", id))
	return nil
}

func (s *Service) Lines(ctx context.Context, saleID int64) ([]domain.Line, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.Lines", trace.WithAttributes(attribute.Int64("sale.id", saleID)))
	defer span.End()

	result, err := s.inner.Lines(ctx, saleID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load sale lines", slog.Int64("sale.id", saleID))
	}
	return result, nil
}

func (s *Service) History(ctx context.Context, saleID int64) ([]domain.HistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "VentasService.History", trace.WithAttributes(attribute.Int64("sale.id", saleID)))
	defer span.End()

	result, err := s.inner.History(ctx, saleID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load sale history", slog.Int64("sale.id", saleID))
	}
	span.SetAttributes(attribute.Int("history.count", len(result)))
	return result, nil
}

func filterAttributes(filter ports.SaleFilter) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if filter.SellerID != nil {
		attrs = append(attrs, attribute.Int64("filter.seller_id", *filter.SellerID))
	}
	if filter.ClientID != nil {
		attrs = append(attrs, attribute.Int64("filter.client_id", *filter.ClientID))
	}
	if filter.SoldFrom != nil {
		attrs = append(attrs, attribute.String("filter.from", filter.SoldFrom.Format("2006-01-02")))
	}
	if filter.SoldTo != nil {
		attrs = append(attrs, attribute.String("filter.to", filter.SoldTo.Format("2006-01-02")))
	}
	return attrs
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
	salesRegistered metric.Int64Counter
	salesDeleted    metric.Int64Counter
	unitsSold       metric.Int64Counter
	saleAmount      metric.Float64Histogram
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	salesRegistered, _ := m.Int64Counter("ventas.service.sales_registered", metric.WithDescription("Number of sales registered"))
	salesDeleted, _ := m.Int64Counter("ventas.service.sales_deleted", metric.WithDescription("Number of sales deleted"))
	unitsSold, _ := m.Int64Counter("ventas.service.units_sold", metric.WithDescription("Product units leaving stock through sales"))
	saleAmount, _ := m.Float64Histogram("ventas.service.sale_amount", metric.WithDescription("Total amount per registered sale"))
	return serviceMetrics{
		salesRegistered: salesRegistered,
		salesDeleted:    salesDeleted,
		unitsSold:       unitsSold,
		saleAmount:      saleAmount,
	}
}

func (m serviceMetrics) recordRegistered(ctx context.Context, sale *domain.Sale) {
	if m.salesRegistered != nil {
		m.salesRegistered.Add(ctx, 1)
	}
	if m.unitsSold != nil {
		units := 0
		for _, line := range sale.Lines {
			units += line.Quantity
		}
		m.unitsSold.Add(ctx, int64(units))
	}
	if m.saleAmount != nil {
		m.saleAmount.Record(ctx, sale.Total.InexactFloat64())
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.salesDeleted != nil {
		m.salesDeleted.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
