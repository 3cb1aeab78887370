package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Email    EmailConfig
	Payment  PaymentConfig
	Pricing  PricingConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Debug       bool
	Port        string
	Host        string
	FrontendURL string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
	Algorithm          string
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
	Provider     string // "file", "smtp", "resend"
	OutboxDir    string
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	ResendAPIKey string
	FromEmail    string
	FromName     string
	AdminEmail   string
}

// PaymentConfig holds payment provider configuration
type PaymentConfig struct {
	Provider        string // "mock", "stripe"
	StripeSecretKey string
	WebhookSecret   string
	MockAutoPay     bool
}

var globalConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	stripeKey := getEnv("STRIPE_SECRET_KEY", "")
	defaultProvider := "stripe"
	if stripeKey == "" || stripeKey == "sk_test_mock" {
		defaultProvider = "mock"
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Ask YaGuy API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Debug:       getEnvAsBool("DEBUG", false),
			Port:        getEnv("PORT", "3000"),
			Host:        getEnv("HOST", "0.0.0.0"),
			FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:8000"), "/"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./yaguy.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("JWT_SECRET", "your-256-bit-secret-change-this-in-production"),
			TokenExpiryMinutes: getEnvAsInt("JWT_EXPIRE_MINUTES", 24*60),
			Algorithm:          getEnv("ALGORITHM", "HS256"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "Stripe-Signature"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "file")),
			OutboxDir:    getEnv("EMAIL_OUTBOX_DIR", "./emails_sent"),
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			Username:     getEnv("SMTP_USERNAME", ""),
			Password:     getEnv("SMTP_PASSWORD", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", "noreply@yaguy.com"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Ask YaGuy"),
			AdminEmail:   getEnv("ADMIN_EMAIL", "admin@yaguy.com"),
		},
		Payment: PaymentConfig{
			Provider:        strings.ToLower(getEnv("PAYMENT_PROVIDER", defaultProvider)),
			StripeSecretKey: stripeKey,
			WebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MockAutoPay:     getEnvAsBool("MOCK_PAYMENT_AUTO_PAY", true),
		},
		Pricing: PricingConfig{
			Currency: strings.ToLower(getEnv("CURRENCY", "usd")),
			Standard: PriceTier{
				PriceCents: int64(getEnvAsInt("STANDARD_PRICE_CENTS", 4900)),
				SLAHours:   getEnvAsInt("STANDARD_SLA_HOURS", 24),
			},
			Urgent: PriceTier{
				PriceCents: int64(getEnvAsInt("URGENT_PRICE_CENTS", 9900)),
				SLAHours:   getEnvAsInt("URGENT_SLA_HOURS", 6),
			},
		},
	}

	// A pricing file replaces the env-derived table entirely
	if path := getEnv("PRICING_FILE", ""); path != "" {
		pricing, err := LoadPricingFile(path)
		if err != nil {
			return nil, err
		}
		config.Pricing = *pricing
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRE_MINUTES must be greater than 0")
	}
	switch cfg.Email.Provider {
	case "file", "smtp", "resend":
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.Email.Provider)
	}
	switch cfg.Payment.Provider {
	case "mock":
	case "stripe":
		if cfg.Payment.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY must be set when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER: %s", cfg.Payment.Provider)
	}
	return cfg.Pricing.Validate()
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "dbname=")
}

// GetPostgresDSN returns the DSN handed to the postgres driver. pgx accepts
// both URL and key=value forms, so the value passes through unchanged.
func (c *DatabaseConfig) GetPostgresDSN() string {
	return c.URL
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}

// GetSQLiteDSN returns the SQLite path with the pragmas the store relies on:
// foreign keys for cascades and a busy timeout so writers queue instead of failing.
func (c *DatabaseConfig) GetSQLiteDSN() string {
	path := c.GetSQLitePath()
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
