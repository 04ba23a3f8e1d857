// Package container provides dependency injection and lifecycle management
// for the post review service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Workflow engine configuration
	Workflow WorkflowConfig

	// Event feed configuration
	Events EventsConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// WorkflowConfig holds review engine settings.
type WorkflowConfig struct {
	// StrictTransitions turns ignored triggers into errors
	StrictTransitions bool

	// CacheExpiry is how long an idle per-document lock is kept
	CacheExpiry time.Duration
}

// EventsConfig holds event feed settings.
type EventsConfig struct {
	// WebsocketEnabled starts the websocket event hub
	WebsocketEnabled bool

	// SendBufferSize is the per-client queue length
	SendBufferSize int

	// BroadcastBufferSize is the fan-out queue length
	BroadcastBufferSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/post-review.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Workflow: WorkflowConfig{
			CacheExpiry: 30 * time.Minute,
		},
		Events: EventsConfig{
			WebsocketEnabled:    true,
			SendBufferSize:      64,
			BroadcastBufferSize: 256,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.CacheExpiry <= 0 {
		return fmt.Errorf("workflow.cache_expiry must be positive")
	}
	return nil
}
