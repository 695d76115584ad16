package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	farmasyncserver "github.com/Apurer/farmasync/go"
	inventarioclient "github.com/Apurer/farmasync/internal/clients/http/inventario"

	pedidosinventario "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/external/inventario"
	pedidosmemory "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/memory"
	pedidosobs "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/observability"
	pedidospostgres "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/persistence/postgres"
	pedidosworkflows "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/workflows"
	pedidosapp "github.com/Apurer/farmasync/internal/domains/pedidos/application"
	pedidosports "github.com/Apurer/farmasync/internal/domains/pedidos/ports"

	usuariosmemory "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/memory"
	usuariosobs "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/observability"
	usuariospostgres "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/persistence/postgres"
	usuariosapp "github.com/Apurer/farmasync/internal/domains/usuarios/application"
	usuariosports "github.com/Apurer/farmasync/internal/domains/usuarios/ports"

	ventasinventario "github.com/Apurer/farmasync/internal/domains/ventas/adapters/external/inventario"
	ventasmemory "github.com/Apurer/farmasync/internal/domains/ventas/adapters/memory"
	ventasobs "github.com/Apurer/farmasync/internal/domains/ventas/adapters/observability"
	ventaspostgres "github.com/Apurer/farmasync/internal/domains/ventas/adapters/persistence/postgres"
	ventasapp "github.com/Apurer/farmasync/internal/domains/ventas/application"
	ventasports "github.com/Apurer/farmasync/internal/domains/ventas/ports"

	"github.com/Apurer/farmasync/internal/platform/auth"
	"github.com/Apurer/farmasync/internal/platform/messaging"
	"github.com/Apurer/farmasync/internal/platform/migrations"
	platformobservability "github.com/Apurer/farmasync/internal/platform/observability"
	platformpostgres "github.com/Apurer/farmasync/internal/platform/postgres"
)

const shutdownTimeout = 5 * time.Second

// deps is what every service builder receives.
type deps struct {
	cfg         Config
	db          *gorm.DB
	issuer      *auth.Issuer
	publisher   *messaging.Producer
	instruments *platformobservability.Instruments
	logger      *slog.Logger
}

// built is the outcome of a service builder.
type built struct {
	routes   []farmasyncserver.Route
	verifier auth.Verifier
	cleanup  func()
}

// Run boots one FarmaSync HTTP service with observability, persistence, messaging and
// workflows wired, and serves until ctx is cancelled.
func Run(ctx context.Context, service Service) error {
	cfg, err := LoadConfig(service)
	if err != nil {
		return err
	}
	serviceName := "farmasync-" + string(service)
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("configure token issuer: %w", err)
	}
	publisher := buildPublisher(cfg, serviceName, logger)
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	d := deps{cfg: cfg, db: db, issuer: issuer, publisher: publisher, instruments: instruments, logger: logger}
	var b built
	switch service {
	case ServiceUsuarios:
		b = buildUsuarios(ctx, d)
	case ServiceVentas:
		b, err = buildVentas(d)
	case ServicePedidos:
		b, err = buildPedidos(d)
	}
	if err != nil {
		return err
	}
	if b.cleanup != nil {
		defer b.cleanup()
	}

	router := farmasyncserver.NewRouter(b.routes, farmasyncserver.RouterOptions{
		ServiceName:    serviceName,
		BasePath:       cfg.BasePath,
		AllowedOrigins: cfg.AllowedOrigins,
		Verifier:       b.verifier,
		Metrics:        instruments.Metrics(),
		Logger:         logger,
	})
	return serve(ctx, router, cfg.Addr(), serviceName, logger)
}

func serve(ctx context.Context, handler http.Handler, addr, serviceName string, logger *slog.Logger) error {
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", slog.String("service", serviceName), slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("API shutting down", slog.String("service", serviceName))
	return server.Shutdown(shutdownCtx)
}

func buildUsuarios(ctx context.Context, d deps) built {
	var (
		repo     usuariosports.Repository     = usuariosmemory.NewRepository()
		roles    usuariosports.RoleRepository = usuariosmemory.NewRoleRepository()
		sessions usuariosports.SessionStore   = usuariosmemory.NewSessionStore()
	)
	if d.db != nil {
		repo = usuariospostgres.NewRepository(d.db)
		roles = usuariospostgres.NewRoleRepository(d.db)
		sessions = usuariospostgres.NewSessionStore(d.db, d.cfg.SessionTTL)
		d.logger.Info("usuarios repositories configured with postgres")
	}
	opts := []usuariosapp.Option{usuariosapp.WithSessionStore(sessions)}
	if d.publisher != nil {
		opts = append(opts, usuariosapp.WithEventPublisher(d.publisher))
	}
	core := usuariosapp.NewService(repo, roles, auth.NewBcryptHasher(0), d.issuer, opts...)
	service := usuariosobs.New(core,
		usuariosobs.WithLogger(d.logger),
		usuariosobs.WithTracer(d.instruments.Tracer("internal.usuarios.application")),
		usuariosobs.WithMeter(d.instruments.Meter("internal.usuarios.application")),
	)

	purgeCtx, stopPurge := context.WithCancel(ctx)
	go purgeSessions(purgeCtx, service, d.cfg.SessionPurgeInterval, d.logger)

	return built{
		routes:   farmasyncserver.UsuariosRoutes(farmasyncserver.NewUsuariosAPI(service, d.logger)),
		verifier: auth.NewRevocationVerifier(d.issuer, sessions),
		cleanup:  stopPurge,
	}
}

// purgeSessions drops expired login sessions once per interval until ctx ends.
func purgeSessions(ctx context.Context, service usuariosports.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("session purge failed", slog.String("error", err.Error()))
			}
		}
	}
}

func buildVentas(d deps) (built, error) {
	client, err := newInventoryClient(d.cfg)
	if err != nil {
		return built{}, err
	}
	var repo ventasports.Repository = ventasmemory.NewRepository()
	if d.db != nil {
		repo = ventaspostgres.NewRepository(d.db)
		d.logger.Info("ventas repository configured with postgres")
	}
	var opts []ventasapp.Option
	if d.publisher != nil {
		opts = append(opts, ventasapp.WithEventPublisher(d.publisher))
	}
	core := ventasapp.NewService(repo, ventasinventario.NewInventory(client), opts...)
	service := ventasobs.New(core,
		ventasobs.WithLogger(d.logger),
		ventasobs.WithTracer(d.instruments.Tracer("internal.ventas.application")),
		ventasobs.WithMeter(d.instruments.Meter("internal.ventas.application")),
	)
	return built{
		routes:   farmasyncserver.VentasRoutes(farmasyncserver.NewVentasAPI(service, d.logger)),
		verifier: d.issuer,
	}, nil
}

func buildPedidos(d deps) (built, error) {
	client, err := newInventoryClient(d.cfg)
	if err != nil {
		return built{}, err
	}
	var repo pedidosports.Repository = pedidosmemory.NewRepository()
	if d.db != nil {
		repo = pedidospostgres.NewRepository(d.db)
		d.logger.Info("pedidos repository configured with postgres")
	}
	var opts []pedidosapp.Option
	if d.publisher != nil {
		opts = append(opts, pedidosapp.WithEventPublisher(d.publisher))
	}
	cleanup := func() {}
	if temporalClient, err := connectTemporalClient(d.cfg, d.instruments); err != nil {
		d.logger.Warn("Temporal workflows unavailable, registering stock-in inline", slog.String("error", err.Error()))
	} else {
		cleanup = temporalClient.Close
		opts = append(opts, pedidosapp.WithStockInOrchestrator(pedidosworkflows.NewTemporalStockIn(temporalClient)))
		d.logger.Info("Temporal workflows enabled", slog.String("namespace", d.cfg.TemporalNamespace))
	}
	core := pedidosapp.NewService(repo, pedidosinventario.NewInventory(client), opts...)
	service := pedidosobs.New(core,
		pedidosobs.WithLogger(d.logger),
		pedidosobs.WithTracer(d.instruments.Tracer("internal.pedidos.application")),
		pedidosobs.WithMeter(d.instruments.Meter("internal.pedidos.application")),
	)
	return built{
		routes:   farmasyncserver.PedidosRoutes(farmasyncserver.NewPedidosAPI(service, d.logger)),
		verifier: d.issuer,
		cleanup:  cleanup,
	}, nil
}

func newInventoryClient(cfg Config) (*inventarioclient.Client, error) {
	client, err := inventarioclient.NewClient(cfg.InventoryBaseURL, &http.Client{
		Timeout:   cfg.InventoryTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("configure inventory client: %w", err)
	}
	return client, nil
}

// buildPublisher returns nil when no Kafka broker is configured.
func buildPublisher(cfg Config, serviceName string, logger *slog.Logger) *messaging.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, domain events are not published")
		return nil
	}
	topic := messaging.Topic(cfg.KafkaTopicPrefix, string(cfg.Service))
	logger.Info("publishing domain events", slog.String("topic", topic))
	return messaging.NewProducer(cfg.KafkaBrokers, topic, serviceName, messaging.WithLogger(logger))
}

// ConnectTemporal dials the Temporal frontend with tracing and structured logging configured.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	return ConnectTemporal(cfg, instruments, "temporal-client")
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
