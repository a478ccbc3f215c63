package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default remote lead-intake endpoint and client key used by the form.
const (
	DefaultCRMEndpoint  = "https://crm1.i4interface.com/api/leads"
	DefaultCRMClientKey = "client_68cbd64a75cce81b7a168671"
)

// Config holds application configuration
type Config struct {
	App    AppConfig
	CORS   CORSConfig
	CRM    CRMConfig
	Intake IntakeConfig
	Email  EmailConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CRMConfig holds the remote CRM endpoints used by the form and the intake API
type CRMConfig struct {
	Endpoint        string
	ClientKey       string
	ClientKeyHeader string
	Timeout         time.Duration // zero means no client timeout
	APIKey          string
	ForwardURL      string
}

// ForwardingEnabled reports whether accepted intake leads are pushed downstream
func (c *CRMConfig) ForwardingEnabled() bool {
	return c.APIKey != "" && c.ForwardURL != ""
}

// IntakeConfig holds settings for the local lead intake route
type IntakeConfig struct {
	SimulatedDelay time.Duration
	AssignedTo     string
	NextSteps      string
	NotifyEmail    string
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

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Lead Capture API"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvAsBool("DEBUG", false),
			Port:    getEnv("PORT", "8000"),
			Host:    getEnv("HOST", "0.0.0.0"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		},
		CRM: CRMConfig{
			Endpoint:        getEnv("CRM_ENDPOINT", DefaultCRMEndpoint),
			ClientKey:       getEnv("CRM_CLIENT_KEY", DefaultCRMClientKey),
			ClientKeyHeader: getEnv("CRM_CLIENT_KEY_HEADER", "x-client-key"),
			Timeout:         time.Duration(getEnvAsInt("CRM_TIMEOUT_SECONDS", 0)) * time.Second,
			APIKey:          getEnv("CRM_API_KEY", ""),
			ForwardURL:      getEnv("CRM_FORWARD_URL", ""),
		},
		Intake: IntakeConfig{
			SimulatedDelay: time.Duration(getEnvAsInt("INTAKE_DELAY_MS", 1000)) * time.Millisecond,
			AssignedTo:     getEnv("INTAKE_ASSIGNED_TO", "Sales Team"),
			NextSteps:      getEnv("INTAKE_NEXT_STEPS", "Our sales team will contact you within 24 hours"),
			NotifyEmail:    getEnv("SALES_NOTIFY_EMAIL", ""),
		},
		Email: EmailConfig{
			Enabled:   getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("EMAIL_FROM", "noreply@example.com"),
			FromName:  getEnv("EMAIL_FROM_NAME", "Lead Capture"),
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
	if err := validateAbsoluteURL(cfg.CRM.Endpoint); err != nil {
		return fmt.Errorf("CRM_ENDPOINT: %w", err)
	}
	if cfg.CRM.ClientKeyHeader == "" {
		return fmt.Errorf("CRM_CLIENT_KEY_HEADER must not be empty")
	}
	if cfg.CRM.Timeout < 0 {
		return fmt.Errorf("CRM_TIMEOUT_SECONDS must not be negative")
	}
	if cfg.CRM.ForwardURL != "" {
		if err := validateAbsoluteURL(cfg.CRM.ForwardURL); err != nil {
			return fmt.Errorf("CRM_FORWARD_URL: %w", err)
		}
	}
	if cfg.Intake.SimulatedDelay < 0 {
		return fmt.Errorf("INTAKE_DELAY_MS must not be negative")
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must be absolute, got %q", raw)
	}
	return nil
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
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
