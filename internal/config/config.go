// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail dashboard.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider"`
	Gmail    GmailConfig   `yaml:"gmail"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	Send     SendConfig    `yaml:"send"`
	Paths    PathsConfig   `yaml:"paths"`
	SES      SESConfig     `yaml:"ses"`
	Logging  LoggingConfig `yaml:"logging"`
}

// GmailConfig holds the sender credentials.
type GmailConfig struct {
	SenderEmail string `yaml:"sender_email"`
	AppPassword string `yaml:"app_password"`
}

// SMTPConfig holds the relay endpoint settings.
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SendConfig holds the retry policy and pre-check settings.
type SendConfig struct {
	MaxRetries             int `yaml:"max_retries"`
	RetryBackoffSeconds    int `yaml:"retry_backoff_seconds"`
	PrecheckTimeoutSeconds int `yaml:"precheck_timeout_seconds"`
}

// PathsConfig holds the template and attachment directories.
type PathsConfig struct {
	TemplatesDir   string `yaml:"templates_dir"`
	AttachmentsDir string `yaml:"attachments_dir"`
}

// SESConfig holds AWS SES credentials for the alternative backend.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// GmailConfigured returns true if both sender email and app password are set.
func (c *Config) GmailConfigured() bool {
	return c.Gmail.SenderEmail != "" && c.Gmail.AppPassword != ""
}

// SESConfigured returns true if an SES region is set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// SMTPTimeout returns the relay connect timeout as a duration.
func (c *Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTP.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the delay between delivery attempts as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Send.RetryBackoffSeconds) * time.Second
}

// PrecheckTimeout returns the connectivity pre-check timeout as a duration.
func (c *Config) PrecheckTimeout() time.Duration {
	return time.Duration(c.Send.PrecheckTimeoutSeconds) * time.Second
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Host = "smtp.gmail.com"
	c.SMTP.Port = 587
	c.SMTP.TimeoutSeconds = 30
	c.Send.MaxRetries = 2
	c.Send.RetryBackoffSeconds = 1
	c.Send.PrecheckTimeoutSeconds = 5
	c.Paths.TemplatesDir = "templates"
	c.Paths.AttachmentsDir = "attach"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("GMAIL_SENDER_EMAIL"); v != "" {
		c.Gmail.SenderEmail = v
	}
	if v := os.Getenv("GMAIL_APP_PASSWORD"); v != "" {
		c.Gmail.AppPassword = v
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.SMTP.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv("SEND_MAX_RETRIES"); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			c.Send.MaxRetries = retries
		}
	}
	if v := os.Getenv("SEND_RETRY_BACKOFF_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Send.RetryBackoffSeconds = secs
		}
	}
	if v := os.Getenv("SEND_PRECHECK_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Send.PrecheckTimeoutSeconds = secs
		}
	}

	if v := os.Getenv("TEMPLATES_DIR"); v != "" {
		c.Paths.TemplatesDir = v
	}
	if v := os.Getenv("ATTACH_DIR"); v != "" {
		c.Paths.AttachmentsDir = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
