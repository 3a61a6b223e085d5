package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the optional YAML file.
const EnvConfigPath = "TALLY_CONFIG_PATH"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"TALLY_SERVER_HOST"`
	Port int    `yaml:"port" env:"TALLY_SERVER_PORT"`

	// SessionTimeout ends idle MCP sessions and drops idle session controllers.
	SessionTimeout time.Duration `yaml:"session_timeout" env:"TALLY_SERVER_SESSION_TIMEOUT"`
}

// StoreConfig selects where the project collection is persisted.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"TALLY_STORE_DRIVER"`
	Path   string `yaml:"path" env:"TALLY_STORE_PATH"`
	Format string `yaml:"format" env:"TALLY_STORE_FORMAT"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" env:"TALLY_TRANSPORT_MODE"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled" env:"TALLY_AUTH_ENABLED"`
	Token   string `yaml:"token" env:"TALLY_AUTH_TOKEN"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"TALLY_LOG_LEVEL"`
	Path  string `yaml:"path" env:"TALLY_LOG_PATH"`
}

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"

	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

var (
	ErrInvalidDriver  = errors.New("invalid store driver")
	ErrInvalidMode    = errors.New("invalid transport mode")
	ErrInvalidFormat  = errors.New("invalid store format")
	ErrMissingToken   = errors.New("auth enabled without token")
	ErrInvalidTimeout = errors.New("invalid session timeout")
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			SessionTimeout: 30 * time.Minute,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "tally.db",
			Format: "json",
		},
		Transport: TransportConfig{
			Mode: ModeStdio,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and environment variables.
// path overrides TALLY_CONFIG_PATH when non-empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverFile:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Store.Driver)
	}
	switch c.Store.Format {
	case "", "json", "cbor":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Store.Format)
	}
	switch c.Transport.Mode {
	case ModeStdio, ModeHTTP:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Transport.Mode)
	}
	if c.Server.SessionTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Server.SessionTimeout)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
