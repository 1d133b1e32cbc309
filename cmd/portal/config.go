package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Authority AuthorityConfig `mapstructure:"authority"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Registry sources.
const (
	RegistrySourceDatabase = "database"
	RegistrySourceFile     = "file"
)

// RegistryConfig holds manifest registry configuration.
type RegistryConfig struct {
	// Source is where microfrontend records are read from: "database" or "file".
	Source string `mapstructure:"source"`

	// File is the YAML module file used when Source is "file".
	File string `mapstructure:"file"`

	// RefreshInterval reloads the registry periodically. Zero disables it.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// Watch reloads the registry when the module file changes.
	Watch bool `mapstructure:"watch"`
}

// AuthorityConfig selects the permission and feature authorities.
type AuthorityConfig struct {
	// Permissions is "header" (X-Permissions from the gateway) or "static".
	Permissions        string   `mapstructure:"permissions"`
	GrantedPermissions []string `mapstructure:"granted_permissions"`

	// Features is "database" (feature_flags table) or "static".
	Features        string   `mapstructure:"features"`
	EnabledFeatures []string `mapstructure:"enabled_features"`
}

// FiltersConfig holds feature filter configuration.
type FiltersConfig struct {
	RejectedTags []string `mapstructure:"rejected_tags"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// SharedSecret is an optional secret to validate the X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string `mapstructure:"shared_secret"`

	// RequireAdmin guards the management endpoints with the portal:admin permission.
	RequireAdmin bool `mapstructure:"require_admin"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("registry.source", RegistrySourceDatabase)
	v.SetDefault("registry.file", "")
	v.SetDefault("registry.refresh_interval", "0s")
	v.SetDefault("registry.watch", false)
	v.SetDefault("authority.permissions", "header")
	v.SetDefault("authority.granted_permissions", []string{})
	v.SetDefault("authority.features", "database")
	v.SetDefault("authority.enabled_features", []string{})
	v.SetDefault("filters.rejected_tags", []string{"secret"})
	v.SetDefault("auth.shared_secret", "")
	v.SetDefault("auth.require_admin", false)

	// No default: an unset DSN is derived from data_dir below.
	_ = v.BindEnv("database.dsn")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.DSN == "" {
		if cfg.DataDir != "" {
			cfg.Database.DSN = filepath.Join(cfg.DataDir, "portal.db")
		} else {
			cfg.Database.DSN = "./data/portal.db"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Registry.Source {
	case RegistrySourceDatabase:
	case RegistrySourceFile:
		if c.Registry.File == "" {
			return errors.New("registry.file is required when registry.source is file")
		}
	default:
		return fmt.Errorf("registry.source must be %q or %q, got %q",
			RegistrySourceDatabase, RegistrySourceFile, c.Registry.Source)
	}
	if c.Registry.RefreshInterval < 0 {
		return errors.New("registry.refresh_interval must not be negative")
	}
	// Without the secret any caller can send its own X-Permissions header.
	if c.Auth.RequireAdmin && c.Auth.SharedSecret == "" {
		return errors.New("auth.require_admin needs auth.shared_secret")
	}
	return nil
}

// Warnings lists settings that are accepted but unsafe outside development.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Auth.SharedSecret == "" && (c.Authority.Permissions == "" || c.Authority.Permissions == "header") {
		warnings = append(warnings, "permissions are read from X-Permissions but auth.shared_secret is empty; callers can grant themselves any permission")
	}
	return warnings
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
