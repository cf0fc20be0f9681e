package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cagnotte/database"
	"cagnotte/domain/entities"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr     string
	ShareBaseURL string   // Public origin used to build share links
	CORSOrigins  []string // Allowed browser origins, empty allows any

	// Identity provider configuration
	JWTSecret string // HS256 signing secret of the managed backend
	JWTIssuer string // Optional expected "iss" claim

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Pot lifecycle configuration
	PotDuration                  time.Duration
	DeadlineSweepInterval        time.Duration
	RequireParticipantsForPayout bool

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		// A missing .env file is fine, real deployments use the process environment
		_ = godotenv.Load()

		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr:     getEnvWithDefault("HTTP_ADDR", ":8080"),
		ShareBaseURL: strings.TrimRight(getEnvWithDefault("SHARE_BASE_URL", "https://connect-ci.app"), "/"),
		CORSOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),

		// Identity
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: os.Getenv("JWT_ISSUER"),

		// NATS
		NATSEnabled: getEnvBool("NATS_ENABLED", false),
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Pot lifecycle
		PotDuration:                  getEnvDuration("POT_DURATION", entities.DefaultPotDuration),
		DeadlineSweepInterval:        getEnvDuration("DEADLINE_SWEEP_INTERVAL", time.Minute),
		RequireParticipantsForPayout: getEnvBool("REQUIRE_PARTICIPANTS_FOR_PAYOUT", false),

		// OpenTelemetry
		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "cagnotte"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.PotDuration <= 0 {
		return nil, fmt.Errorf("POT_DURATION must be positive")
	}
	if config.DeadlineSweepInterval <= 0 {
		return nil, fmt.Errorf("DEADLINE_SWEEP_INTERVAL must be positive")
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		HTTPAddr:              ":0",
		ShareBaseURL:          "https://connect-ci.test",
		JWTSecret:             "test-secret",
		PotDuration:           entities.DefaultPotDuration,
		DeadlineSweepInterval: time.Minute,
		OTelServiceName:       "cagnotte-test",
		OTelExporterType:      "none",
		LogLevel:              "debug",
	}
}
