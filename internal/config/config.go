package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Export    ExportConfig    `yaml:"export"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig picks the key-value backend. Path is the SQLite file and is
// ignored for postgres, which uses the database section.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type SessionConfig struct {
	RestPresets []int `yaml:"rest_presets"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// StoreDSN returns what storage.Open expects for the configured driver.
func (c *Config) StoreDSN() string {
	if c.Storage.Driver == DriverPostgres {
		return c.Database.DSN()
	}
	return c.Storage.Path
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage:   StorageConfig{Driver: DriverSQLite, Path: "repbuddy.db"},
		Database:  DatabaseConfig{Port: 5432},
		Session:   SessionConfig{RestPresets: []int{60, 90, 120}},
		Export:    ExportConfig{Dir: "."},
		Tailscale: TailscaleConfig{Hostname: "repbuddy", StateDir: "tsnet-state"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A .env file in the working directory is
// loaded first when present; it never replaces variables already set.
// A missing file is fine when path is empty.
//
// Env vars use the prefix REPBUDDY_ and underscore-separated paths:
//
//	REPBUDDY_SERVER_HOST, REPBUDDY_SERVER_PORT,
//	REPBUDDY_STORAGE_DRIVER, REPBUDDY_STORAGE_PATH,
//	REPBUDDY_DB_HOST, REPBUDDY_DB_PORT, REPBUDDY_DB_NAME,
//	REPBUDDY_DB_USER, REPBUDDY_DB_PASSWORD, REPBUDDY_DB_SSLMODE,
//	REPBUDDY_AUTH_API_KEY, REPBUDDY_REST_PRESETS (comma separated),
//	REPBUDDY_EXPORT_DIR, REPBUDDY_TAILSCALE_ENABLED,
//	REPBUDDY_TAILSCALE_HOSTNAME, REPBUDDY_TAILSCALE_STATE_DIR
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("REPBUDDY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REPBUDDY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REPBUDDY_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("REPBUDDY_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REPBUDDY_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("REPBUDDY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("REPBUDDY_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REPBUDDY_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("REPBUDDY_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REPBUDDY_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("REPBUDDY_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("REPBUDDY_REST_PRESETS"); v != "" {
		presets, err := parsePresets(v)
		if err != nil {
			return fmt.Errorf("REPBUDDY_REST_PRESETS: %w", err)
		}
		cfg.Session.RestPresets = presets
	}
	if v := os.Getenv("REPBUDDY_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("REPBUDDY_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("REPBUDDY_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("REPBUDDY_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	return nil
}

func parsePresets(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid preset %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Storage.Driver)
	}
	if len(c.Session.RestPresets) == 0 {
		return fmt.Errorf("session.rest_presets must not be empty")
	}
	for _, p := range c.Session.RestPresets {
		if p <= 0 {
			return fmt.Errorf("session.rest_presets must be positive, got %d", p)
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
