package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	inventarioclient "github.com/Apurer/farmasync/internal/clients/http/inventario"
	"github.com/Apurer/farmasync/internal/platform/auth"
	"github.com/Apurer/farmasync/internal/platform/messaging"
)

// Service names one of the FarmaSync HTTP processes.
type Service string

const (
	ServiceUsuarios Service = "usuarios"
	ServiceVentas   Service = "ventas"
	ServicePedidos  Service = "pedidos"
)

// DefaultInventoryBaseURL is where the inventory collaborator listens in local setups.
const DefaultInventoryBaseURL = "http://localhost:8016/farmasync/inventario"

// localJWTSecret only signs tokens when ENVIRONMENT=local and JWT_SECRET is unset.
const localJWTSecret = "farmasync-local-development-signing-key"

// DefaultPort is the port a service listens on when PORT is unset.
func (s Service) DefaultPort() string {
	switch s {
	case ServiceUsuarios:
		return "8081"
	case ServiceVentas:
		return "8082"
	case ServicePedidos:
		return "8083"
	}
	return "8080"
}

func (s Service) valid() bool {
	return s == ServiceUsuarios || s == ServiceVentas || s == ServicePedidos
}

// Config carries environment-driven settings for one service process.
type Config struct {
	Service          Service
	Environment      string
	Port             string
	BasePath         string
	PostgresDSN      string
	JWTSecret        []byte
	JWTTTL           time.Duration
	AllowedOrigins   []string
	InventoryBaseURL string
	InventoryTimeout time.Duration
	KafkaBrokers     []string
	KafkaTopicPrefix string

	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	SessionTTL           time.Duration
	SessionPurgeInterval time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig(service Service) (Config, error) {
	if !service.valid() {
		return Config{}, fmt.Errorf("unknown service %q", service)
	}
	cfg := Config{
		Service:           service,
		Environment:       strings.ToLower(envDefault("ENVIRONMENT", "local")),
		Port:              envDefault("PORT", service.DefaultPort()),
		BasePath:          strings.TrimSpace(os.Getenv("API_BASE_PATH")),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		AllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		InventoryBaseURL:  envDefault("INVENTORY_BASE_URL", DefaultInventoryBaseURL),
		KafkaBrokers:      messaging.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix:  envDefault("KAFKA_TOPIC_PREFIX", "farmasync"),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
	}

	secret, err := jwtSecret(cfg.Environment)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTSecret = secret

	ttl, err := positiveInt("JWT_TTL_MINUTES", int(auth.DefaultTokenTTL/time.Minute))
	if err != nil {
		return Config{}, err
	}
	cfg.JWTTTL = time.Duration(ttl) * time.Minute

	timeout, err := positiveInt("INVENTORY_TIMEOUT_SECONDS", int(inventarioclient.DefaultTimeout/time.Second))
	if err != nil {
		return Config{}, err
	}
	cfg.InventoryTimeout = time.Duration(timeout) * time.Second

	sessionHours, err := positiveInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = time.Duration(sessionHours) * time.Hour

	purgeMinutes, err := positiveInt("SESSION_PURGE_INTERVAL_MINUTES", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionPurgeInterval = time.Duration(purgeMinutes) * time.Minute
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func jwtSecret(environment string) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if raw == "" {
		if environment == "local" {
			return []byte(localJWTSecret), nil
		}
		return nil, fmt.Errorf("JWT_SECRET is required when ENVIRONMENT=%s", environment)
	}
	secret, err := auth.DecodeSecret(raw)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET: %w", err)
	}
	return secret, nil
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
