package config

import (
	"github.com/garyjia/post-review/internal/container"
	httpapi "github.com/garyjia/post-review/internal/interfaces/http"
	"github.com/garyjia/post-review/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This bridges the file-based config loaded by viper and the container's
// configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Workflow: container.WorkflowConfig{
			StrictTransitions: c.Workflow.StrictTransitions,
			CacheExpiry:       c.Workflow.CacheExpiry,
		},
		Events: container.EventsConfig{
			WebsocketEnabled:    c.Events.WebsocketEnabled,
			SendBufferSize:      c.Events.SendBufferSize,
			BroadcastBufferSize: c.Events.BroadcastBufferSize,
		},
	}
}

// ToServerConfig converts the server section for the HTTP adapter
func (c *Config) ToServerConfig() httpapi.ServerConfig {
	return httpapi.ServerConfig{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		ReadTimeout:     c.Server.ReadTimeout,
		WriteTimeout:    c.Server.WriteTimeout,
		ShutdownTimeout: c.Server.ShutdownTimeout,
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
