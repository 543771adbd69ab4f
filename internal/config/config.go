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
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the device registry and history store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; only needed where tokens are issued (seed/dev).
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; required by the realtime dispatcher to verify viewer tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim expected on viewer tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim expected on viewer tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m"); used where tokens are issued.
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Used by cmd/seed.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// MQTTBrokerURL is the MQTT broker to connect to (e.g. mqtt://localhost:1883).
	MQTTBrokerURL string `mapstructure:"MQTT_BROKER_URL"`
	// MQTTClientID is the MQTT client id; a random one is generated when empty.
	MQTTClientID string `mapstructure:"MQTT_CLIENT_ID"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set,
	// cmd/bridge produces readings to Kafka and cmd/server runs the relay consumer.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the Kafka topic carrying device readings (default silowatch-readings).
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group id for the relay consumer.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// HistoryRetention is how long history entries are kept (e.g. "5h").
	HistoryRetention string `mapstructure:"HISTORY_RETENTION"`
	// LivenessPeriod is the sweep interval for the liveness monitor (e.g. "1m").
	LivenessPeriod string `mapstructure:"LIVENESS_PERIOD"`
	// LivenessThreshold is the silence duration after which a device is offline.
	// Must be >= LivenessPeriod to avoid false positives from scheduling jitter.
	LivenessThreshold string `mapstructure:"LIVENESS_THRESHOLD"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
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
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "silowatch-auth")
	v.SetDefault("JWT_AUDIENCE", "silowatch-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MQTT_BROKER_URL", "mqtt://localhost:1883")
	v.SetDefault("MQTT_CLIENT_ID", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "silowatch-readings")
	v.SetDefault("KAFKA_GROUP_ID", "silowatch-relay")
	v.SetDefault("HISTORY_RETENTION", "5h")
	v.SetDefault("LIVENESS_PERIOD", "1m")
	v.SetDefault("LIVENESS_THRESHOLD", "2m")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.MQTTBrokerURL == "" {
		return nil, errors.New("config: MQTT_BROKER_URL must be set")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.LivenessThresholdDuration() < cfg.LivenessPeriodDuration() {
		return nil, errors.New("config: LIVENESS_THRESHOLD must be >= LIVENESS_PERIOD")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// HistoryRetentionDuration parses HistoryRetention. Returns 5h if unset or invalid.
func (c *Config) HistoryRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.HistoryRetention)
	if err != nil || d <= 0 {
		return 5 * time.Hour
	}
	return d
}

// LivenessPeriodDuration parses LivenessPeriod. Returns 1m if unset or invalid.
func (c *Config) LivenessPeriodDuration() time.Duration {
	d, err := time.ParseDuration(c.LivenessPeriod)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// LivenessThresholdDuration parses LivenessThreshold. Returns 2m if unset or invalid.
func (c *Config) LivenessThresholdDuration() time.Duration {
	d, err := time.ParseDuration(c.LivenessThreshold)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the cross-process relay is enabled (non-empty list).
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
