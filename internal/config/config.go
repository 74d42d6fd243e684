package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// TokenConfig configures one family of JWTs.
type TokenConfig struct {
	Secret       string
	Issuer       string
	Audience     string
	RequireHTTPS bool
	TTL          time.Duration
}

// SMTPConfig holds the outgoing mail relay settings. An empty Host disables
// delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port                string
	DatabaseURL         string
	Confirmation        TokenConfig
	Authentication      TokenConfig
	BcryptCost          int
	ConfirmationURLBase string
	SMTP                SMTPConfig
	RedisURL            string
	CORSOrigins         []string
	LogLevel            string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Confirmation: TokenConfig{
			Secret:   strings.TrimSpace(os.Getenv("CONFIRMATION_JWT_SECRET")),
			Issuer:   strings.TrimSpace(os.Getenv("CONFIRMATION_JWT_ISSUER")),
			Audience: strings.TrimSpace(os.Getenv("CONFIRMATION_JWT_AUDIENCE")),
			TTL:      12 * time.Hour,
		},
		Authentication: TokenConfig{
			Secret:   strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
			Issuer:   strings.TrimSpace(os.Getenv("AUTH_JWT_ISSUER")),
			Audience: strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		},
		ConfirmationURLBase: strings.TrimRight(fallback(os.Getenv("CONFIRMATION_URL_BASE"), "http://localhost:8080"), "/"),
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Username: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   strings.TrimSpace(os.Getenv("SMTP_SENDER")),
		},
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
	}

	var err error
	if cfg.Confirmation.RequireHTTPS, err = parseBool("CONFIRMATION_JWT_REQUIRE_HTTPS"); err != nil {
		return Config{}, err
	}
	if cfg.Authentication.RequireHTTPS, err = parseBool("AUTH_JWT_REQUIRE_HTTPS"); err != nil {
		return Config{}, err
	}

	hours, err := parsePositiveInt("AUTH_JWT_TTL_HOURS", 168)
	if err != nil {
		return Config{}, err
	}
	cfg.Authentication.TTL = time.Duration(hours) * time.Hour

	if cfg.BcryptCost, err = parsePositiveInt("BCRYPT_COST", 12); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.Port, err = parsePositiveInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Confirmation.Secret == "" {
		return errors.New("CONFIRMATION_JWT_SECRET is required")
	}
	if c.Authentication.Secret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}

	base, err := url.Parse(c.ConfirmationURLBase)
	if err != nil || base.Host == "" {
		return fmt.Errorf("invalid CONFIRMATION_URL_BASE value: %q", c.ConfirmationURLBase)
	}
	if c.Confirmation.RequireHTTPS && base.Scheme != "https" {
		return errors.New("CONFIRMATION_URL_BASE must use https when CONFIRMATION_JWT_REQUIRE_HTTPS is set")
	}

	if c.SMTP.Host != "" && c.SMTP.Sender == "" {
		return errors.New("SMTP_SENDER is required when SMTP_HOST is set")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseBool(key string) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return v, nil
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
