// Package cli assembles Pressline from configuration and runs its terminal
// front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/pressline/internal/config"
	"github.com/aretw0/pressline/internal/logging"
	redisadapter "github.com/aretw0/pressline/pkg/adapters/redis"
	"github.com/aretw0/pressline/pkg/adapters/sqlstore"
	"github.com/aretw0/pressline/pkg/conversation"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/aretw0/pressline/pkg/gateway"
	"github.com/aretw0/pressline/pkg/input"
	"github.com/aretw0/pressline/pkg/observability"
	"github.com/aretw0/pressline/pkg/script"
	"github.com/aretw0/pressline/pkg/session"
	goredis "github.com/redis/go-redis/v9"
)

// App bundles the long-lived components built from a Config.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *sqlstore.Store
	Gateway   *gateway.Gateway
	Registry  *driver.Registry
	Actions   *conversation.Actions
	Metrics   *observability.Metrics
	Sanitizer *input.Sanitizer

	redis *goredis.Client
}

// BuildOptions tune Build for the calling command.
type BuildOptions struct {
	// Migrate runs AutoMigrate after connecting.
	Migrate bool

	// AuditLog writes lifecycle events to the logger.
	AuditLog bool
}

// Build connects the store, optional Redis lock backend and scripted flows,
// and wires the conversation layer.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (*App, error) {
	logger := logging.NewWithFormat(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	store, err := sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Metrics:   observability.NewMetrics(),
		Sanitizer: input.New(cfg.Input.MaxSize),
	}
	if opts.Migrate {
		if err := store.AutoMigrate(); err != nil {
			app.Close()
			return nil, err
		}
	}

	registry, err := LoadRegistry(cfg.Flows.Scripts)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Registry = registry

	lockOpts := []session.Option{session.WithLogger(logger), session.WithTTL(cfg.Redis.LockTTL)}
	if cfg.Redis.Addr != "" {
		client, err := redisadapter.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = client
		lockOpts = append(lockOpts, session.WithLocker(redisadapter.NewLocker(client, cfg.Redis.Prefix)))
		logger.Info("distributed session locks enabled", "addr", cfg.Redis.Addr)
	}

	hooks := app.Metrics.Hooks()
	if opts.AuditLog {
		hooks = observability.Combine(hooks, observability.LogHooks(logger))
	}

	app.Gateway = gateway.New(store, gateway.WithLogger(logger))
	app.Actions = conversation.NewActions(app.Gateway,
		conversation.WithRegistry(registry),
		conversation.WithPersistedFlows(cfg.Flows.Persisted...),
		conversation.WithLocks(session.NewLocks(lockOpts...)),
		conversation.WithLifecycleHooks(hooks),
		conversation.WithLogger(logger),
	)
	return app, nil
}

// LoadRegistry returns the builtin scripted flows plus those in paths.
func LoadRegistry(paths []string) (*driver.Registry, error) {
	reg := script.DefaultRegistry()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cli: open script %s: %w", path, err)
		}
		defs, err := script.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cli: %s: %w", path, err)
		}
		if err := script.Register(reg, defs...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Close releases the store and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
