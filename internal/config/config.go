package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. POST_REVIEW_SERVER_PORT
const EnvPrefix = "POST_REVIEW"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig holds review engine settings
type WorkflowConfig struct {
	// StrictTransitions rejects triggers that have no edge from the current state
	StrictTransitions bool          `mapstructure:"strict_transitions"`
	CacheExpiry       time.Duration `mapstructure:"cache_expiry"`
}

// EventsConfig holds event feed settings
type EventsConfig struct {
	WebsocketEnabled    bool `mapstructure:"websocket_enabled"`
	SendBufferSize      int  `mapstructure:"send_buffer_size"`
	BroadcastBufferSize int  `mapstructure:"broadcast_buffer_size"`
}

// LoadDotEnv loads variables from env files into the process environment.
// Missing files are skipped; variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := gotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/post-review.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("workflow.strict_transitions", false)
	v.SetDefault("workflow.cache_expiry", 30*time.Minute)

	v.SetDefault("events.websocket_enabled", true)
	v.SetDefault("events.send_buffer_size", 64)
	v.SetDefault("events.broadcast_buffer_size", 256)
}

// bindEnvVars binds the short names deployment platforms usually set
func bindEnvVars(v *viper.Viper) {
	if _, ok := os.LookupEnv(EnvPrefix + "_SERVER_PORT"); !ok {
		v.BindEnv("server.port", "PORT")
	}
	if _, ok := os.LookupEnv(EnvPrefix + "_DATABASE_PATH"); !ok {
		v.BindEnv("database.path", "DATABASE_PATH")
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level must be one of debug, info, warn, error, got %q", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if c.Workflow.CacheExpiry <= 0 {
		return fmt.Errorf("workflow.cache_expiry must be positive")
	}

	if c.Events.WebsocketEnabled && c.Events.SendBufferSize <= 0 {
		return fmt.Errorf("events.send_buffer_size must be positive")
	}

	return nil
}
