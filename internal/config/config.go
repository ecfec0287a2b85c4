// Package config loads the jsondb configuration from a YAML file.
//
// Every field has a default so that a missing file is a valid configuration.
// Command line flags override the loaded values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole configuration.
type Config struct {
	// Data configures the JSON document.
	Data Data `yaml:"data"`

	// Server configures the HTTP API.
	Server Server `yaml:"server"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Data configures where and how the document is stored.
type Data struct {
	// Path is the JSON document.
	Path string `yaml:"path"`

	// Indent is the number of spaces per nesting level. 0 writes compact JSON.
	Indent int `yaml:"indent"`

	// History commits every save to a git repository in the document's
	// directory.
	History bool `yaml:"history"`

	// Author is recorded on history commits.
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `yaml:"addr"`

	// JWTSecret enables bearer authentication when set. HS256 tokens signed
	// with it are accepted.
	JWTSecret string `yaml:"jwt_secret"`

	// Watch reloads the document when another process changes it.
	Watch bool `yaml:"watch"`

	// MaxRequestBodyBytes limits the size of any request body.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

// RateLimits defines rate limiting per client IP, in requests per minute.
type RateLimits struct {
	// ReadRatePerMin limits GET requests and queries. 0 means unlimited.
	ReadRatePerMin int `yaml:"read_rate_per_min"`

	// WriteRatePerMin limits mutations. 0 means unlimited.
	WriteRatePerMin int `yaml:"write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ReadRatePerMin < 0 {
		return errors.New("read_rate_per_min must be non-negative")
	}
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: Data{
			Path:        "jsondb.json",
			Indent:      4,
			AuthorName:  "jsondb",
			AuthorEmail: "jsondb@localhost",
		},
		Server: Server{
			Addr:                "localhost:8080",
			MaxRequestBodyBytes: 10 * 1024 * 1024, // 10 MiB
			ShutdownTimeout:     5 * time.Second,
			RateLimits: RateLimits{
				ReadRatePerMin:  6000,
				WriteRatePerMin: 600,
			},
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return errors.New("data.path is required")
	}
	if c.Data.Indent < 0 || c.Data.Indent > 16 {
		return fmt.Errorf("data.indent must be between 0 and 16, got %d", c.Data.Indent)
	}
	if c.Data.History && (c.Data.AuthorName == "" || c.Data.AuthorEmail == "") {
		return errors.New("data.author_name and data.author_email are required with history")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.JWTSecret != "" && len(c.Server.JWTSecret) < 32 {
		return errors.New("server.jwt_secret must be at least 32 bytes")
	}
	if c.Server.MaxRequestBodyBytes < 0 {
		return errors.New("server.max_request_body_bytes must be non-negative")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must be non-negative")
	}
	if err := c.Server.RateLimits.Validate(); err != nil {
		return fmt.Errorf("server.rate_limits: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// Load reads the configuration at path on top of the defaults.
//
// An empty path or a missing file returns the defaults. A relative data.path
// is resolved against the directory of the configuration file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is provided by the operator
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if !filepath.IsAbs(cfg.Data.Path) && cfg.Data.Path != "" {
		cfg.Data.Path = filepath.Join(filepath.Dir(path), cfg.Data.Path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
