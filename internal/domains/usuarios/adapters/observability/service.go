package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
	"github.com/Apurer/farmasync/internal/platform/auth"
)

const tracerName = "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/observability/service"

// Service decorates the usuarios service with tracing, logging, and metrics.
// Passwords and tokens never reach logs or span attributes.
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

// New wraps the core usuarios service.
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

func (s *Service) CreateUser(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.CreateUser", trace.WithAttributes(attribute.Int64("role.id", profile.RoleID)))
	defer span.End()

	s.logInfo(ctx, "creating user", slog.Int64("role.id", profile.RoleID))
	result, err := s.inner.CreateUser(ctx, profile)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create user")
	}
	span.SetAttributes(attribute.Int64("user.id", result.ID))
	s.metrics.recordRegistered(ctx, result.Role.Name)
	s.logInfo(ctx, "user created", slog.Int64("user.id", result.ID), slog.String("role", result.Role.Name))
	return result, nil
}

func (s *Service) Register(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.Register")
	defer span.End()

	result, err := s.inner.Register(ctx, profile)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register user")
	}
	span.SetAttributes(attribute.Int64("user.id", result.ID))
	s.metrics.recordRegistered(ctx, result.Role.Name)
	s.logInfo(ctx, "user registered", slog.Int64("user.id", result.ID))
	return result, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (auth.Token, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.Login")
	defer span.End()

	token, err := s.inner.Login(ctx, email, password)
	if err != nil {
		s.metrics.recordLogin(ctx, false)
		return auth.Token{}, s.handleError(ctx, span, err, "login rejected")
	}
	s.metrics.recordLogin(ctx, true)
	span.SetAttributes(attribute.String("token.id", token.ID))
	s.logInfo(ctx, "login succeeded", slog.String("token.id", token.ID), slog.Time("token.expires_at", token.ExpiresAt))
	return token, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.GetUser", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	result, err := s.inner.GetUser(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load user", slog.Int64("user.id", id))
	}
	return result, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.ListUsers")
	defer span.End()

	result, err := s.inner.ListUsers(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list users")
	}
	span.SetAttributes(attribute.Int("users.count", len(result)))
	return result, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, profile domain.Profile) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.UpdateUser", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	s.logInfo(ctx, "updating user", slog.Int64("user.id", id))
	result, err := s.inner.UpdateUser(ctx, id, profile)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update user", slog.Int64("user.id", id))
	}
	s.logInfo(ctx, "user updated", slog.Int64("user.id", id))
	return result, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.DeleteUser", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting user", slog.Int64("user.id", id))
	if err := s.inner.DeleteUser(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete user", slog.Int64("user.id", id))
	}
	s.logInfo(ctx, "user deleted", slog.Int64("user.id", id))
	return nil
}

func (s *Service) Me(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.Me")
	defer span.End()

	result, err := s.inner.Me(ctx, email)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to resolve current user")
	}
	span.SetAttributes(attribute.Int64("user.id", result.ID))
	return result, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]domain.Role, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.ListRoles")
	defer span.End()

	result, err := s.inner.ListRoles(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list roles")
	}
	return result, nil
}

func (s *Service) GetRole(ctx context.Context, id int64) (domain.Role, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.GetRole", trace.WithAttributes(attribute.Int64("role.id", id)))
	defer span.End()

	result, err := s.inner.GetRole(ctx, id)
	if err != nil {
		return domain.Role{}, s.handleError(ctx, span, err, "failed to load role", slog.Int64("role.id", id))
	}
	return result, nil
}

func (s *Service) CreateRole(ctx context.Context, name string) (domain.Role, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.CreateRole", trace.WithAttributes(attribute.String("role.name", name)))
	defer span.End()

	result, err := s.inner.CreateRole(ctx, name)
	if err != nil {
		return domain.Role{}, s.handleError(ctx, span, err, "failed to create role", slog.String("role.name", name))
	}
	s.logInfo(ctx, "role created", slog.Int64("role.id", result.ID), slog.String("role.name", result.Name))
	return result, nil
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.DeleteRole", trace.WithAttributes(attribute.Int64("role.id", id)))
	defer span.End()

	if err := s.inner.DeleteRole(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete role", slog.Int64("role.id", id))
	}
	s.logInfo(ctx, "role deleted", slog.Int64("role.id", id))
	return nil
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "UsuariosService.PurgeExpiredSessions")
	defer span.End()

	purged, err := s.inner.PurgeExpiredSessions(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to purge sessions")
	}
	span.SetAttributes(attribute.Int64("sessions.purged", purged))
	s.logInfo(ctx, "expired sessions purged", slog.Int64("sessions.purged", purged))
	return purged, nil
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
	registrations metric.Int64Counter
	logins        metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registrations, _ := m.Int64Counter("usuarios.service.registrations", metric.WithDescription("Number of user accounts created"))
	logins, _ := m.Int64Counter("usuarios.service.logins", metric.WithDescription("Number of login attempts"))
	return serviceMetrics{registrations: registrations, logins: logins}
}

func (m serviceMetrics) recordRegistered(ctx context.Context, role string) {
	if m.registrations != nil {
		m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("user.role", role)))
	}
}

func (m serviceMetrics) recordLogin(ctx context.Context, success bool) {
	if m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("login.success", success)))
	}
}

var _ ports.Service = (*Service)(nil)
