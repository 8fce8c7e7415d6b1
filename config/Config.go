// Package config loads runtime settings from a .env file, the environment and
// command-line flags, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Database struct {
	// Driver is "postgres" or "memory"
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the connection string for dbName
func (d Database) DSN(dbName string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, dbName, d.Port, d.SSLMode)
}

type JWT struct {
	// Either Secret (HS256) or both RSA PEMs (RS256) must be set
	Secret        string
	RSAPrivateKey string
	RSAPublicKey  string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Cookie struct {
	Path   string
	Secure bool
}

type SMTP struct {
	Host       string
	Port       int
	User       string
	Password   string
	SenderName string
}

// Enabled reports whether outgoing mail is configured at all
func (s SMTP) Enabled() bool {
	return s.Host != ""
}

type Seed struct {
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	RateLimitMax   int
	Database       Database
	JWT            JWT
	Cookie         Cookie
	SMTP           SMTP
	Seed           Seed
}

// Load reads configuration. args are the command-line arguments without the program name.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("sodalis", pflag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "path to a .env file")
	port := fs.String("port", "", "HTTP listen port (overrides PORT)")
	logLevel := fs.String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("failed to load .env file, using process environment", "file", *envFile, "error", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if *port != "" {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	var errs []error

	accessTTL, err := getDuration("JWT_ACCESS_TTL", 15*time.Minute)
	errs = append(errs, err)
	refreshTTL, err := getDuration("JWT_REFRESH_TTL", 7*24*time.Hour)
	errs = append(errs, err)
	cookieSecure, err := getBool("COOKIE_SECURE", true)
	errs = append(errs, err)
	smtpPort, err := getInt("SMTP_PORT", 587)
	errs = append(errs, err)
	rateLimitMax, err := getInt("RATE_LIMIT_MAX", 10)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Config{
		Port:           getEnv("PORT", "4000"),
		Environment:    getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitMax:   rateLimitMax,
		Database: Database{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "sodalis"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWT{
			Secret:        getEnv("JWT_SECRET", ""),
			RSAPrivateKey: getEnv("RSA_PRIVATE_KEY", ""),
			RSAPublicKey:  getEnv("RSA_PUBLIC_KEY", ""),
			Issuer:        getEnv("JWT_ISSUER", "sodalis"),
			AccessTTL:     accessTTL,
			RefreshTTL:    refreshTTL,
		},
		Cookie: Cookie{
			Path:   getEnv("COOKIE_PATH", "/api/v1"),
			Secure: cookieSecure,
		},
		SMTP: SMTP{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       smtpPort,
			User:       getEnv("SMTP_USER", ""),
			Password:   getEnv("SMTP_PASS", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Sodalis"),
		},
		Seed: Seed{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}, nil
}

// Validate rejects configurations the server must not start with
func (c *Config) Validate() error {
	var errs []error

	hasRSA := c.JWT.RSAPrivateKey != "" || c.JWT.RSAPublicKey != ""
	switch {
	case hasRSA && (c.JWT.RSAPrivateKey == "" || c.JWT.RSAPublicKey == ""):
		errs = append(errs, errors.New("RSA_PRIVATE_KEY and RSA_PUBLIC_KEY must be set together"))
	case !hasRSA && c.JWT.Secret == "":
		errs = append(errs, errors.New("JWT_SECRET (or RSA_PRIVATE_KEY/RSA_PUBLIC_KEY) is required"))
	}

	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be positive"))
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverMemory {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverMemory))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if c.IsProduction() && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SECURE cannot be disabled when APP_ENV=production"))
	}
	if (c.Seed.AdminEmail == "") != (c.Seed.AdminPassword == "") {
		errs = append(errs, errors.New("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// IsProduction is true when APP_ENV=production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
