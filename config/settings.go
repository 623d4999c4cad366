// Package config loads rankgraph settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Environment string        `mapstructure:"environment"`
	Server      ServerConfig  `mapstructure:"server"`
	Rank        RankConfig    `mapstructure:"rank"`
	Canvas      CanvasConfig  `mapstructure:"canvas"`
	Session     SessionConfig `mapstructure:"session"`
	Log         LogConfig     `mapstructure:"log"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Address             string `mapstructure:"address"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `mapstructure:"idle_timeout_seconds"`
}

// RankConfig bounds the power iteration. The damping factor is fixed.
type RankConfig struct {
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

// CanvasConfig is the drawing area used by renderers and layouts
type CanvasConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// SessionConfig controls editing session lifetime on the server
type SessionConfig struct {
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes"`
	MaxSessions        int `mapstructure:"max_sessions"`
}

// LogConfig selects log level and format
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig enables OTLP export when Endpoint is set
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Load reads configuration from YAML files and environment variables
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (e.g., RANKGRAPH_SERVER_ADDRESS)
//  2. Environment-specific YAML (e.g., config.development.yaml)
//  3. Base YAML (config.yaml)
//  4. Built-in defaults
//
// An empty configPath skips the files and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Missing file falls back to defaults with env vars
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}

		env := os.Getenv("RANKGRAPH_ENV")
		if env == "" {
			env = v.GetString("environment")
		}

		configDir := filepath.Dir(configPath)
		configExt := filepath.Ext(configPath)
		configBase := strings.TrimSuffix(filepath.Base(configPath), configExt)
		envConfigPath := filepath.Join(configDir, fmt.Sprintf("%s.%s%s", configBase, env, configExt))
		if _, err := os.Stat(envConfigPath); err == nil {
			v.SetConfigFile(envConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to merge environment config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("RANKGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or the environment
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Address:             ":8080",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
			IdleTimeoutSeconds:  120,
		},
		Rank:    RankConfig{Tolerance: 1e-6, MaxIterations: 1000},
		Canvas:  CanvasConfig{Width: 800, Height: 600},
		Session: SessionConfig{IdleTimeoutMinutes: 30, MaxSessions: 64},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{ServiceName: "rankgraph"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("rank.tolerance", 1e-6)
	v.SetDefault("rank.max_iterations", 1000)
	v.SetDefault("canvas.width", 800.0)
	v.SetDefault("canvas.height", 600.0)
	v.SetDefault("session.idle_timeout_minutes", 30)
	v.SetDefault("session.max_sessions", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "rankgraph")
}

// validate checks configuration ranges
func validate(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if cfg.Rank.Tolerance <= 0 {
		return fmt.Errorf("rank.tolerance must be greater than 0")
	}
	if cfg.Rank.MaxIterations <= 0 {
		return fmt.Errorf("rank.max_iterations must be greater than 0")
	}
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	if cfg.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be greater than 0")
	}
	return nil
}

// ReadTimeout returns the server read timeout
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the server idle timeout
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// IdleTimeout returns how long an untouched session lives
func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}
