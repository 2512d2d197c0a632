package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Email     EmailConfig
	Notify    NotifyConfig
	Recaptcha RecaptchaConfig
	Pipeline  PipelineConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name         string
	Version      string
	Debug        bool
	Port         string
	Host         string
	MaxBodyBytes int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
	// Backend selects the repository implementation: "gorm" or "pgx".
	Backend string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	Enabled   bool
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// NotifyConfig holds who gets told about new submissions and how the
// acknowledgment is signed.
type NotifyConfig struct {
	OwnerEmail string
	OwnerName  string
	Signature  string
}

// RecaptchaConfig holds human-verification settings
type RecaptchaConfig struct {
	SecretKey string
	VerifyURL string
	MinScore  float64
}

// PipelineConfig holds submission pipeline policy
type PipelineConfig struct {
	OutboundTimeout        time.Duration
	FreshnessWindow        time.Duration
	RequireVerification    bool
	RequireClientTimestamp bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:         getEnv("APP_NAME", "Portfolio Contact API"),
			Version:      getEnv("APP_VERSION", "1.0.0"),
			Debug:        getEnvAsBool("DEBUG", false),
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			URL:     getEnv("DATABASE_URL", "sqlite:///./portfolio.db"),
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "gorm")),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{
				"http://localhost:5173",
				"http://localhost:3000",
				"*.vercel.app",
				"*.netlify.app",
			}),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:   getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("EMAIL_FROM", "noreply@localhost"),
			FromName:  getEnv("EMAIL_FROM_NAME", "Portfolio"),
		},
		Notify: NotifyConfig{
			OwnerEmail: getEnv("NOTIFY_OWNER_EMAIL", ""),
			OwnerName:  getEnv("NOTIFY_OWNER_NAME", "Portfolio Owner"),
			Signature:  getEnv("NOTIFY_SIGNATURE", ""),
		},
		Recaptcha: RecaptchaConfig{
			SecretKey: getEnv("RECAPTCHA_SECRET_KEY", ""),
			VerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			MinScore:  getEnvAsFloat("RECAPTCHA_MIN_SCORE", 0.5),
		},
		Pipeline: PipelineConfig{
			OutboundTimeout:        getEnvAsDuration("OUTBOUND_TIMEOUT", 5*time.Second),
			FreshnessWindow:        getEnvAsDuration("FRESHNESS_WINDOW", 5*time.Minute),
			RequireVerification:    getEnvAsBool("REQUIRE_VERIFICATION", false),
			RequireClientTimestamp: getEnvAsBool("REQUIRE_CLIENT_TIMESTAMP", false),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.App.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be greater than 0")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	switch cfg.Database.Backend {
	case "gorm":
	case "pgx":
		if !cfg.Database.IsPostgres() {
			return fmt.Errorf("STORE_BACKEND=pgx requires a postgres DATABASE_URL")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be gorm or pgx, got %q", cfg.Database.Backend)
	}
	if cfg.Email.Enabled && cfg.Notify.OwnerEmail == "" {
		return fmt.Errorf("NOTIFY_OWNER_EMAIL must be set when EMAIL_ENABLED is true")
	}
	if cfg.Recaptcha.MinScore <= 0 || cfg.Recaptcha.MinScore > 1 {
		return fmt.Errorf("RECAPTCHA_MIN_SCORE must be within (0, 1]")
	}
	if cfg.Pipeline.RequireVerification && !cfg.Recaptcha.Enabled() {
		return fmt.Errorf("RECAPTCHA_SECRET_KEY must be set when REQUIRE_VERIFICATION is true")
	}
	if cfg.Pipeline.OutboundTimeout <= 0 {
		return fmt.Errorf("OUTBOUND_TIMEOUT must be greater than 0")
	}
	if cfg.Pipeline.FreshnessWindow <= 0 {
		return fmt.Errorf("FRESHNESS_WINDOW must be greater than 0")
	}
	return nil
}

// Enabled reports whether a verification secret is configured.
func (c *RecaptchaConfig) Enabled() bool {
	return c.SecretKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "host=")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
