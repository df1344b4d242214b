package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by STORE_BACKEND.
const (
	StoreBackendMemory = "memory"
	StoreBackendMySQL  = "mysql"
	StoreBackendMongo  = "mongo"
)

// CallbackPath is the fixed path the identity provider redirects the popup to.
const CallbackPath = "/api/auth/google/callback"

// Config holds application configuration from environment variables
type Config struct {
	// Application
	AppPort       string
	BaseURL       string
	SessionSecret string
	LogLevel      string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	OAuthTimeout       time.Duration

	// Storage
	StoreBackend string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// MongoDB
	MongoURI      string
	MongoDatabase string

	// OpenTelemetry
	MetricsEnabled            bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPHeaders   string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELServiceVersion        string
	OTELDeploymentEnvironment string

	// Warnings collects problems found while loading. The logger does not
	// exist yet at that point, so the caller logs them.
	Warnings []string
}

// LoadConfig loads configuration from .env file and environment variables with defaults
func LoadConfig() *Config {
	var warnings []string

	// .env is optional; only complain about real read errors
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			warnings = append(warnings, fmt.Sprintf("error loading .env file: %v", err))
		}
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		SessionSecret: getEnv("SESSION_SECRET", "softcool-dev-session-secret"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthTimeout:       getEnvDuration("OAUTH_TIMEOUT", 10*time.Minute, &warnings),

		StoreBackend: getEnv("STORE_BACKEND", StoreBackendMemory),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "softcool"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "softcool"),

		MetricsEnabled:            getEnvBool("METRICS_ENABLED", true),
		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "softcool-storefront"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
	}
	cfg.Warnings = warnings
	return cfg
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// RedirectURI is the OAuth redirect registered with the provider.
func (c *Config) RedirectURI() string {
	return c.BaseURL + CallbackPath
}

// GetAppPortInt returns the application port as an integer
func (c *Config) GetAppPortInt() int {
	port, err := strconv.Atoi(c.AppPort)
	if err != nil {
		return 8080
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration, warnings *[]string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		*warnings = append(*warnings, fmt.Sprintf("invalid duration for %s: %q, using %s", key, value, defaultValue))
	}
	return defaultValue
}
