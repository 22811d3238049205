// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the gin HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health server (e.g. :9090). Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis URL for the session cache, sign-out denylist and rate limits. Empty uses in-memory state.
	RedisURL string `mapstructure:"REDIS_URL"`

	// JWTPublicKey is the PEM-encoded public key or path to file used to verify access tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTPrivateKey is the PEM-encoded private key or path to file. Only cmd/seed needs it.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTIssuer is the expected iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the lifetime of tokens issued by cmd/seed (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// SessionFreshTTL is how long a cached session is served without revalidation.
	SessionFreshTTL string `mapstructure:"SESSION_FRESH_TTL"`
	// SessionStaleTTL is how long past freshness a cached session is still served while it revalidates.
	SessionStaleTTL string `mapstructure:"SESSION_STALE_TTL"`

	// MutationRateLimit is the per-user requests-per-minute budget of mutation endpoints. 0 disables limiting.
	MutationRateLimit int `mapstructure:"MUTATION_RATE_LIMIT"`

	// Telemetry (optional). When Kafka brokers are set, navigation events are published to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. localhost:4317). Empty disables OTel export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelSampleRatio is the fraction of new traces sampled (0 or 1 samples everything).
	OTelSampleRatio float64 `mapstructure:"OTEL_TRACES_SAMPLER_ARG"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"SERVICE_NAME"`

	// Env is the application environment (e.g. "development", "production"). Selects the logger.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel overrides the logger level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_ISSUER", "farmgate-auth")
	v.SetDefault("JWT_AUDIENCE", "farmgate-app")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("SESSION_FRESH_TTL", "30s")
	v.SetDefault("SESSION_STALE_TTL", "5m")
	v.SetDefault("MUTATION_RATE_LIMIT", 60)
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "farmgate-telemetry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "farmgate-telemetry-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 1.0)
	v.SetDefault("SERVICE_NAME", "farmgate")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.OTelSampleRatio < 0 || cfg.OTelSampleRatio > 1 {
		return nil, errors.New("config: OTEL_TRACES_SAMPLER_ARG must be between 0 and 1")
	}
	if cfg.MutationRateLimit < 0 {
		return nil, errors.New("config: MUTATION_RATE_LIMIT must not be negative")
	}
	if _, err := time.ParseDuration(cfg.SessionFreshTTL); err != nil {
		return nil, errors.New("config: SESSION_FRESH_TTL must be a duration")
	}
	if _, err := time.ParseDuration(cfg.SessionStaleTTL); err != nil {
		return nil, errors.New("config: SESSION_STALE_TTL must be a duration")
	}
	if cfg.Env == "production" && cfg.JWTPublicKey == "" && cfg.JWTPrivateKey == "" {
		return nil, errors.New("config: JWT_PUBLIC_KEY must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// FreshTTL parses SessionFreshTTL. Returns 30s if unset or invalid.
func (c *Config) FreshTTL() time.Duration {
	return parseDuration(c.SessionFreshTTL, 30*time.Second)
}

// StaleTTL parses SessionStaleTTL. Returns 5m if unset or invalid.
func (c *Config) StaleTTL() time.Duration {
	return parseDuration(c.SessionStaleTTL, 5*time.Minute)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.Env, "production")
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
