package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string
	Port                          int
	LogLevel                      string
	PrettyLogs                    bool
	HttpServerWriteTimeoutSeconds int
	HttpServerReadTimeoutSeconds  int
	HttpServerIdleTimeoutSeconds  int
	AllowOrigins                  []string
	AllowMethods                  []string

	// Database
	DatabaseDriver              string
	DatabaseHost                string
	DatabasePort                string
	DatabaseUserName            string
	DatabasePassword            string
	DatabaseName                string
	DatabaseSSLMode             string
	DatabaseMaxOpenConns        int
	DatabaseMaxIdleConns        int
	DatabaseConnMaxLifetime     time.Duration
	DatabaseMigrationFolderPath string
	DatabaseMigrationVersion    int
	DatabaseMigrationForce      int
	DatabaseMigrationAutoRollback bool

	// Auth
	// AuthEnabled - when false, allows X-Tenant-ID and X-User-ID headers for testing
	AuthEnabled   bool
	AuthIssuerURL string
	AuthClientID  string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Kafka (comma-separated brokers). Events are disabled when brokers is empty.
	KafkaBrokers        string
	KafkaAnalyticsTopic string

	// Credential encryption key, base64-encoded 32 bytes
	CredentialKey string

	// External analytics providers
	GA4Endpoint           string
	SearchConsoleEndpoint string
	ProviderTimeout       time.Duration

	// Tracing
	OTLPEnabled  bool
	OTLPEndpoint string
	OTLPProtocol string
	OTLPInsecure bool
}

// Load reads configuration from the environment, optionally seeded from a
// .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; environment variables alone are fine
		fmt.Fprintln(os.Stderr, "no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:                       getEnv("APP_NAME", "dealersight-api"),
		Port:                          getEnvAsInt("PORT", 3000),
		LogLevel:                      getEnv("LOG_LEVEL", "info"),
		PrettyLogs:                    getEnvAsBool("PRETTY_LOGS", false),
		HttpServerWriteTimeoutSeconds: getEnvAsInt("HTTP_SERVER_WRITE_TIMEOUT_SECONDS", 10),
		HttpServerReadTimeoutSeconds:  getEnvAsInt("HTTP_SERVER_READ_TIMEOUT_SECONDS", 10),
		HttpServerIdleTimeoutSeconds:  getEnvAsInt("HTTP_SERVER_IDLE_TIMEOUT_SECONDS", 10),
		AllowOrigins:                  getEnvAsSlice("HTTP_SERVER_ALLOW_ORIGINS", []string{"*"}),
		AllowMethods:                  getEnvAsSlice("HTTP_SERVER_ALLOW_METHODS", []string{"GET", "POST", "PUT", "DELETE"}),

		DatabaseDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseHost:                  getEnv("DB_HOST", "localhost"),
		DatabasePort:                  getEnv("DB_PORT", "5432"),
		DatabaseUserName:              getEnv("DB_USER_NAME", ""),
		DatabasePassword:              getEnv("DB_PASSWORD", ""),
		DatabaseName:                  getEnv("DB_NAME", "dealersight"),
		DatabaseSSLMode:               getEnv("DB_SSL_MODE", "disable"),
		DatabaseMaxOpenConns:          getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:          getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DatabaseConnMaxLifetime:       getEnvAsDuration("DB_CONN_MAX_LIFETIME", 10*time.Second),
		DatabaseMigrationFolderPath:   getEnv("DB_MIGRATION_FOLDER_PATH", "db/pg"),
		DatabaseMigrationVersion:      getEnvAsInt("DB_MIGRATION_VERSION", 0),
		DatabaseMigrationForce:        getEnvAsInt("DB_MIGRATION_FORCE", 0),
		DatabaseMigrationAutoRollback: getEnvAsBool("DB_MIGRATION_AUTO_ROLLBACK", true),

		AuthEnabled:   getEnvAsBool("AUTH_ENABLED", false),
		AuthIssuerURL: getEnv("AUTH_ISSUER_URL", ""),
		AuthClientID:  getEnv("AUTH_CLIENT_ID", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvAsInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		KafkaBrokers:        getEnv("KAFKA_BROKERS", ""),
		KafkaAnalyticsTopic: getEnv("KAFKA_ANALYTICS_TOPIC", "analytics-events"),

		CredentialKey: getEnv("CREDENTIAL_KEY", ""),

		GA4Endpoint:           getEnv("GA4_ENDPOINT", "https://analyticsdata.googleapis.com"),
		SearchConsoleEndpoint: getEnv("SEARCH_CONSOLE_ENDPOINT", "https://www.googleapis.com"),
		ProviderTimeout:       getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),

		OTLPEnabled:  getEnvAsBool("OTLP_ENABLED", false),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol: getEnv("OTLP_PROTOCOL", "grpc"),
		OTLPInsecure: getEnvAsBool("OTLP_INSECURE", true),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
