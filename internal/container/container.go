// Package container wires configuration into storage, the collector client
// and the application services shared by the server and the CLI.
package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"decisionsim/adapters/collector"
	"decisionsim/adapters/kvstore"
	"decisionsim/adapters/sqlstore"
	"decisionsim/adapters/stageconfig"
	"decisionsim/app"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
	"decisionsim/internal"
	"decisionsim/internal/config"
	"decisionsim/internal/errors"
	"decisionsim/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Set         *stage.Set
	KV          ports.KVStore
	SessionRepo ports.SessionRepository
	Collector   ports.Collector

	Sessions *app.SessionService
	Groups   *app.GroupService
	Reports  *app.ReportService
	History  *app.HistoryService
}

// New creates a fully wired container. Configuration and stage set errors
// are fatal.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	c := &Container{Config: cfg, Logger: logger}

	set, err := stageconfig.Load(cfg.Stages.Set)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load stage set %s", cfg.Stages.Set)
	}
	c.Set = set
	logger.Info("stage set %s loaded: %d stages, fingerprint %s", set.Name, set.Len(), core.Hash(set.Fingerprint).Short())

	if err := c.initStorage(ctx); err != nil {
		return nil, err
	}
	c.initCollector()
	c.initServices()
	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config.Storage
	switch cfg.Driver {
	case config.DriverMemory:
		c.KV = kvstore.NewMemoryStore()
	case config.DriverFile:
		fs, err := kvstore.NewFileStore(cfg.Path)
		if err != nil {
			return errors.StorageError("failed to open file store", err)
		}
		c.KV = fs
	case config.DriverPostgres, config.DriverSQLite:
		db, err := sqlstore.Open(ctx, cfg.Driver, cfg.DatabaseURL)
		if err != nil {
			return errors.StorageError("failed to open database", err)
		}
		c.DB = db
		c.KV = sqlstore.NewKVStore(db, c.Set.Name)
	default:
		return errors.ConfigInvalid("unsupported storage driver " + cfg.Driver)
	}
	c.SessionRepo = kvstore.NewSessionRepository(c.KV, c.Logger.Named("storage"))
	c.Logger.Info("storage driver %s ready", cfg.Driver)
	return nil
}

func (c *Container) initCollector() {
	cfg := c.Config.Collector
	if cfg.Offline() {
		c.Logger.Info("no COLLECTOR_URL configured, running offline")
		return
	}
	c.Collector = collector.NewClient(collector.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Paths:   collector.DefaultPaths(),
	}, c.Logger.Named("collector"))
	c.Logger.Info("collector %s, sync policy %s", cfg.URL, cfg.SyncPolicy)
}

func (c *Container) initServices() {
	policy := app.SyncGated
	if c.Config.Collector.SyncPolicy == config.SyncOptimistic {
		policy = app.SyncOptimistic
	}
	remote := c.Collector
	c.Sessions = app.NewSessionService(c.Set, c.SessionRepo, remote, app.SessionOptions{Policy: policy}, c.Logger)
	c.Groups = app.NewGroupService(c.Set, c.SessionRepo, remote, c.Logger)
	c.Reports = app.NewReportService(c.Set)
	c.History = app.NewHistoryService(c.Set, c.SessionRepo)
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
	}
	_ = c.Logger.Sync()
	return nil
}
