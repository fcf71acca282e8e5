// Package config provides gateway configuration loaded from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds dialect-gateway configuration.
type Config struct {
	// HTTP listener for the dialect endpoint, /jsonrpc, /calls and health.
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// Dialects
	DefaultDialect string `envconfig:"DEFAULT_DIALECT" default:"default"`
	BootstrapFile  string `envconfig:"BOOTSTRAP_FILE"`

	// Timeouts
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// COMMS: empty URL disables the NATS invoke subscription and call events.
	COMMSURL         string `envconfig:"COMMS_URL"`
	COMMSName        string `envconfig:"SERVICE_NAME" default:"dialect-gateway"`
	InvokeSubject    string `envconfig:"INVOKE_SUBJECT" default:"gateway.invoke"`
	CallEventSubject string `envconfig:"CALL_EVENT_SUBJECT" default:"gateway.calls"`

	// Database: empty URL disables the call log.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	return &c, nil
}

// ValidateForServe checks required config when running the gateway server.
func (c *Config) ValidateForServe() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("%s - HTTP_ADDR is required for serve", logPrefix)
	}
	if strings.TrimSpace(c.DefaultDialect) == "" {
		return fmt.Errorf("%s - DEFAULT_DIALECT must not be empty", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%s - MAX_BODY_BYTES must be positive", logPrefix)
	}
	if c.COMMSURL != "" && c.InvokeSubject == "" {
		return fmt.Errorf("%s - INVOKE_SUBJECT is required when COMMS_URL is set", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}

// CommsEnabled reports whether a NATS connection should be opened.
func (c *Config) CommsEnabled() bool { return c.COMMSURL != "" }

// CallLogEnabled reports whether calls are recorded to Postgres.
func (c *Config) CallLogEnabled() bool { return c.DatabaseURL != "" }
