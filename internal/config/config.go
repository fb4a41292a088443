package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type StorageConfig struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsJSON string
	EmulatorHost    string
}

type KafkaConfig struct {
	Brokers []string
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxLife   time.Duration
	RedisURL        string
	AutoMigrate     bool
	ShutdownTimeout time.Duration

	Casdoor CasdoorConfig
	Storage StorageConfig
	Kafka   KafkaConfig

	AllowedEmailDomains []string
	CORSOrigins         []string
}

// DefaultEmailDomains are the organisation domains allowed to register.
var DefaultEmailDomains = []string{"@ipsumtechnology.co", "@ipsumtechnology.mx"}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    utils.ParseLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLife:   getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		RedisURL:        os.Getenv("REDIS_URL"),
		AutoMigrate:     getEnvBool("AUTO_MIGRATE", true),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         loadCert(os.Getenv("CASDOOR_CERT")),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("OBJECT_STORAGE_PUBLIC_BASE_URL"),
			CredentialsJSON: getEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
			EmulatorHost:    os.Getenv("STORAGE_EMULATOR_HOST"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
		},

		AllowedEmailDomains: splitList(os.Getenv("ALLOWED_EMAIL_DOMAINS")),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "*")),
	}
	if len(cfg.AllowedEmailDomains) == 0 {
		cfg.AllowedEmailDomains = DefaultEmailDomains
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
		return fmt.Errorf("CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required")
	}
	for _, d := range c.AllowedEmailDomains {
		if !strings.HasPrefix(d, "@") {
			return fmt.Errorf("allowed email domain %q must start with @", d)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// loadCert accepts either PEM content or a path to a PEM file.
func loadCert(v string) string {
	if v == "" || strings.Contains(v, "BEGIN") {
		return v
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return v
	}
	return string(data)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
