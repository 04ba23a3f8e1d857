package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/post-review/internal/application/dispatcher"
	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/application/service"
	"github.com/garyjia/post-review/internal/application/workflow"
	"github.com/garyjia/post-review/internal/domain/event"
	"github.com/garyjia/post-review/internal/infrastructure/persistence/repository"
	"github.com/garyjia/post-review/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/post-review/internal/infrastructure/worker"
	"github.com/garyjia/post-review/internal/interfaces/websocket"
	"github.com/garyjia/post-review/pkg/database"
	"github.com/garyjia/post-review/pkg/utils"
	"go.uber.org/zap"
)

// Handler names registered on the dispatcher
const (
	eventLogHandler  = "event-log"
	eventFeedHandler = "websocket-feed"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(database.Migrations())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Document: repository.NewDocumentRepository(sqlDB, logger),
		History:  repository.NewHistoryRepository(sqlDB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher and registers the event log.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	disp := dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKeyValueLogger(logger)),
	)
	disp.SubscribeAll(eventLogHandler, createEventLogHandler(logger))

	return disp, nil
}

// EngineDeps holds dependencies required for creating the review engine.
type EngineDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Config     *WorkflowConfig
}

// ProvideReviewEngine creates the review engine.
func ProvideReviewEngine(deps *EngineDeps) (workflow.ReviewEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("engine dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("workflow config is required")
	}

	return workflow.NewEngine(
		deps.Repos.Document,
		deps.Repos.History,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithCacheExpiry(deps.Config.CacheExpiry),
		workflow.WithStrictTransitions(deps.Config.StrictTransitions),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Engine     workflow.ReviewEngine
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("review engine is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &ServiceBundle{
		Document: service.NewDocumentService(
			deps.Repos.Document,
			deps.Repos.History,
			deps.TxManager,
			deps.Engine,
			deps.Dispatcher,
			utils.NewKeyValueLogger(deps.Logger),
		),
	}, nil
}

// ProvideEventHub creates the websocket hub and subscribes it to every event.
// It returns nil when the feed is disabled.
func ProvideEventHub(cfg *EventsConfig, disp dispatcher.Dispatcher, logger *zap.Logger) (*websocket.Hub, error) {
	if cfg == nil {
		return nil, fmt.Errorf("events config is required")
	}
	if !cfg.WebsocketEnabled {
		return nil, nil
	}
	if disp == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	hub := websocket.NewHub(websocket.Config{
		SendBufferSize:      cfg.SendBufferSize,
		BroadcastBufferSize: cfg.BroadcastBufferSize,
	}, utils.NewKeyValueLogger(logger))
	disp.SubscribeAll(eventFeedHandler, hub.Handle)

	return hub, nil
}

// ProvideWorkers creates the background workers. Idle document locks are
// swept once per cache expiry period.
func ProvideWorkers(engine workflow.ReviewEngine, cfg *WorkflowConfig, logger *zap.Logger) (*worker.WorkerManager, error) {
	if engine == nil {
		return nil, fmt.Errorf("review engine is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("workflow config is required")
	}

	manager := worker.NewWorkerManager(logger)
	manager.Register(worker.NewLockSweeper(engine, cfg.CacheExpiry, logger))
	return manager, nil
}

// createEventLogHandler writes every domain event to the log at debug level
func createEventLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Debug("Domain event",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type.String()),
			zap.Int64("document_id", evt.DocumentID),
			zap.String("correlation_id", evt.CorrelationID),
			zap.Any("payload", evt.Payload),
		)
		return nil
	}
}
