package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the churn prediction service.
type Config struct {
	GRPCPort    string
	HTTPPort    string
	Environment string
	ServiceName string

	// Artifacts loaded once at startup. Local paths, file:// and s3:// are accepted.
	SchemaURI      string
	ModelBundleURI string
	AWSRegion      string

	Database  DatabaseConfig
	Kafka     KafkaConfig
	Log       LogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	TLS       TLSConfig

	InferenceTimeout time.Duration
	CacheSize        int
	MemoryCapacity   int
	OTLPEndpoint     string
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL           string
	MaxConns      int
	RunMigrations bool
}

// KafkaConfig holds Kafka settings. No brokers disables both publishing and scoring.
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ScoringTopic  string
	ConsumerGroup string

	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLS           bool
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// AuthConfig holds JWT settings. Auth is disabled when no key material is set.
type AuthConfig struct {
	JWTSecret        string
	JWTPublicKeyFile string
	Issuer           string
}

// Enabled reports whether any JWT key material is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWTPublicKeyFile != ""
}

// TLSConfig holds the listener key pair. TLS is off unless both files are set.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether both TLS files are configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// RateLimitConfig holds the per-client REST rate limit. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from the environment, after loading envFiles
// (default ".env") when they exist. Variables already set take precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		GRPCPort:    getEnv("GRPC_PORT", "8090"),
		HTTPPort:    getEnv("HTTP_PORT", "9090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		ServiceName: getEnv("SERVICE_NAME", "churnd"),

		SchemaURI:      getEnv("SCHEMA_URI", "configs/feature_schema.yaml"),
		ModelBundleURI: getEnv("MODEL_BUNDLE_URI", "configs/churn_model.json"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),

		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			MaxConns:      getEnvInt("DB_MAX_CONNS", 10),
			RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "churn.events"),
			ScoringTopic:  getEnv("KAFKA_SCORING_TOPIC", ""),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "churnd"),
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			TLS:           getEnvBool("KAFKA_TLS", false),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:           getEnv("JWT_ISSUER", "churn"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 50),
			Burst: getEnvInt("RATE_LIMIT_BURST", 100),
		},
		TLS: TLSConfig{
			CertFile: getEnv("TLS_CERT_FILE", ""),
			KeyFile:  getEnv("TLS_KEY_FILE", ""),
		},

		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT", 2*time.Second),
		CacheSize:        getEnvInt("MODEL_CACHE_SIZE", 4096),
		MemoryCapacity:   getEnvInt("MEMORY_STORE_CAPACITY", 10000),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration values.
func (c *Config) Validate() error {
	var errs []error
	if c.SchemaURI == "" {
		errs = append(errs, fmt.Errorf("SCHEMA_URI is required"))
	}
	if c.ModelBundleURI == "" {
		errs = append(errs, fmt.Errorf("MODEL_BUNDLE_URI is required"))
	}
	if c.InferenceTimeout < 0 {
		errs = append(errs, fmt.Errorf("INFERENCE_TIMEOUT must not be negative"))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("MODEL_CACHE_SIZE must not be negative"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.EventsTopic == "" {
		errs = append(errs, fmt.Errorf("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
