package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	DataAPI  DataAPIConfig
	CORS     CORSConfig
	Notify   NotifyConfig
	Log      LogConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string
}

// DatabaseConfig holds the direct SQL store configuration
type DatabaseConfig struct {
	URL            string
	SSLMode        string
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	EnsureSchema   bool
}

// DataAPIConfig holds the remote data API configuration, used when no
// DATABASE_URL is set
type DataAPIConfig struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// NotifyConfig holds the new-contact notification configuration
type NotifyConfig struct {
	Provider       string // "sendgrid", "smtp", "console" (for development)
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	ToEmail        string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	Timezone       string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Storage backends
const (
	BackendSQL     = "sql"
	BackendDataAPI = "dataapi"
)

// Mail providers
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
	ProviderConsole  = "console"
)

// Load loads configuration from environment variables. Missing store or
// provider credentials are not an error here: the handlers report them per
// request so a function without secrets still answers.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_NAME", "CERTIDESK Contact API")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("DEBUG", false)
	v.SetDefault("PORT", "8000")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("DB_IDLE_TIMEOUT", "30s")
	v.SetDefault("DB_ENSURE_SCHEMA", true)
	v.SetDefault("DATA_API_TIMEOUT", "10s")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("EMAIL_PROVIDER", ProviderSendGrid)
	v.SetDefault("FROM_NAME", "CERTIDESK")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("NOTIFY_TIMEZONE", "America/Santiago")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Version: v.GetString("APP_VERSION"),
			Debug:   v.GetBool("DEBUG"),
			Port:    v.GetString("PORT"),
			Host:    v.GetString("HOST"),
		},
		Database: DatabaseConfig{
			URL:            strings.TrimSpace(v.GetString("DATABASE_URL")),
			SSLMode:        v.GetString("DB_SSLMODE"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
			IdleTimeout:    v.GetDuration("DB_IDLE_TIMEOUT"),
			EnsureSchema:   v.GetBool("DB_ENSURE_SCHEMA"),
		},
		DataAPI: DataAPIConfig{
			URL:     strings.TrimRight(strings.TrimSpace(v.GetString("DATA_API_URL")), "/"),
			Key:     v.GetString("DATA_API_KEY"),
			Timeout: v.GetDuration("DATA_API_TIMEOUT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		},
		Notify: NotifyConfig{
			Provider:       strings.ToLower(v.GetString("EMAIL_PROVIDER")),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			FromEmail:      v.GetString("FROM_EMAIL"),
			FromName:       v.GetString("FROM_NAME"),
			ToEmail:        v.GetString("TO_EMAIL"),
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetInt("SMTP_PORT"),
			SMTPUsername:   v.GetString("SMTP_USERNAME"),
			SMTPPassword:   v.GetString("SMTP_PASSWORD"),
			Timezone:       v.GetString("NOTIFY_TIMEZONE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
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
	switch cfg.Notify.Provider {
	case ProviderSendGrid, ProviderSMTP, ProviderConsole:
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be one of sendgrid, smtp, console")
	}
	if cfg.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be greater than 0")
	}
	if cfg.Database.URL != "" && !cfg.Database.IsPostgres() && !cfg.Database.IsSQLite() {
		return fmt.Errorf("DATABASE_URL must be a postgres:// or sqlite:// URL")
	}
	return nil
}

// Redacted returns a loggable summary that never includes secrets
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"app":             c.App.Name,
		"version":         c.App.Version,
		"debug":           c.App.Debug,
		"store_backend":   c.StoreBackend(),
		"ensure_schema":   c.Database.EnsureSchema,
		"email_provider":  c.Notify.Provider,
		"notify_ready":    c.Notify.Ready(),
		"allowed_origins": strings.Join(c.CORS.AllowedOrigins, ","),
	}
}

// StoreBackend picks the persistence backend: a direct SQL connection wins
// over the data API; empty means neither is configured.
func (c *Config) StoreBackend() string {
	if c.Database.URL != "" {
		return BackendSQL
	}
	if c.DataAPI.URL != "" && c.DataAPI.Key != "" {
		return BackendDataAPI
	}
	return ""
}

// Ready reports whether the configured provider has everything it needs
func (n *NotifyConfig) Ready() bool {
	if n.FromEmail == "" || n.ToEmail == "" {
		return false
	}
	switch n.Provider {
	case ProviderSendGrid:
		return n.SendGridAPIKey != ""
	case ProviderSMTP:
		return n.SMTPHost != "" && n.SMTPUsername != "" && n.SMTPPassword != ""
	case ProviderConsole:
		return true
	}
	return false
}

// Location resolves the notification timezone, falling back to UTC
func (n *NotifyConfig) Location() *time.Location {
	if n.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// IsSQLite checks if the database URL is for SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return strings.HasPrefix(c.URL, "sqlite://")
}

// GetPostgresDSN returns the connection URL with sslmode and connect_timeout
// filled in when the URL does not set them.
func (c *DatabaseConfig) GetPostgresDSN() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	q := u.Query()
	if q.Get("sslmode") == "" && c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if q.Get("connect_timeout") == "" && c.ConnectTimeout > 0 {
		secs := int(c.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	path := c.URL
	if strings.HasPrefix(path, "sqlite:///") {
		return path[len("sqlite:///"):]
	}
	return strings.TrimPrefix(path, "sqlite://")
}
