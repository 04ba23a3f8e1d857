package container

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/garyjia/post-review/internal/application/dispatcher"
	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/application/service"
	"github.com/garyjia/post-review/internal/application/workflow"
	"github.com/garyjia/post-review/internal/infrastructure/export"
	"github.com/garyjia/post-review/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/post-review/internal/infrastructure/worker"
	"github.com/garyjia/post-review/internal/interfaces/websocket"
	"github.com/garyjia/post-review/pkg/database"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	exporter     port.HistoryExporter

	// Application
	dispatcher dispatcher.Dispatcher
	engine     workflow.ReviewEngine
	services   *ServiceBundle

	// Interfaces
	hub *websocket.Hub

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Document port.DocumentRepository
	History  port.HistoryRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Document service.DocumentService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Event dispatcher
// 3. Review engine
// 4. Application services and exporters
// 5. Websocket event hub
// 6. Background workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp
	c.logger.Info("Dispatcher initialized")

	engine, err := ProvideReviewEngine(&EngineDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Config:     &c.config.Workflow,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize review engine: %w", err)
	}
	c.engine = engine
	c.logger.Info("Review engine initialized",
		zap.Bool("strict_transitions", c.config.Workflow.StrictTransitions))

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Engine:     c.engine,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.exporter = export.NewXLSXHistoryExporter()
	c.logger.Info("Application services initialized")

	hub, err := ProvideEventHub(&c.config.Events, c.dispatcher, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event hub: %w", err)
	}
	c.hub = hub
	if hub != nil {
		c.logger.Info("Websocket event hub initialized")
	}

	workers, err := ProvideWorkers(c.engine, &c.config.Workflow, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	if err := workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.workers = workers
	c.logger.Info("Workers started", zap.Int("count", workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// Step 2: Disconnect websocket clients (reverse of step 5)
	if c.hub != nil {
		if err := c.hub.Close(); err != nil {
			c.logger.Error("Failed to close event hub", zap.Error(err))
			errs = append(errs, fmt.Errorf("close event hub: %w", err))
		} else {
			c.logger.Info("Event hub closed")
		}
	}

	// Steps 3-4: services and engine hold no resources of their own

	// Step 5: Close dispatcher
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 6: Close database (reverse of step 1)
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, health ComponentHealth) {
		status.Components[name] = health
		if !health.Healthy {
			status.Overall = false
		}
	}
	notInitialized := ComponentHealth{Healthy: false, Message: "not initialized"}

	switch {
	case c.database == nil:
		set("database", notInitialized)
	case c.closed.Load():
		set("database", ComponentHealth{Healthy: false, Message: "closed"})
	default:
		if err := c.database.Ping(); err != nil {
			set("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", notInitialized)
	}

	if c.engine != nil {
		set("review_engine", ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("strict_transitions=%t", c.config.Workflow.StrictTransitions),
		})
	} else {
		set("review_engine", notInitialized)
	}

	if c.workers != nil {
		running := c.workers.Running()
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("running %d/%d: %s", len(running), c.workers.GetWorkerCount(), strings.Join(running, ", ")),
		})
	} else {
		set("workers", notInitialized)
	}

	if c.config.Events.WebsocketEnabled {
		if c.hub != nil {
			set("event_hub", ComponentHealth{
				Healthy: true,
				Message: fmt.Sprintf("clients: %d", c.hub.ClientCount()),
			})
		} else {
			set("event_hub", notInitialized)
		}
	}

	return status
}

// initDatabase opens the database and builds the repositories.
func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = bundle.DB
	c.db = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.database.DB, c.logger)
	if err != nil {
		c.database.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// ReviewEngine returns the review engine.
func (c *Container) ReviewEngine() workflow.ReviewEngine {
	return c.engine
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// HistoryExporter returns the workbook exporter for audit trails.
func (c *Container) HistoryExporter() port.HistoryExporter {
	return c.exporter
}

// EventFeed returns the websocket handler, or nil when the feed is disabled.
func (c *Container) EventFeed() http.Handler {
	if c.hub == nil {
		return nil
	}
	return c.hub
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
