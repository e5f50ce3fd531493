// Package app wires storage, locking and services from configuration. Both the HTTP
// server and the settlectl CLI build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/settlement_engine/internal/adapters/lock"
	"github.com/SscSPs/settlement_engine/internal/adapters/memory"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/core/services"
	"github.com/SscSPs/settlement_engine/internal/platform/config"
	"github.com/SscSPs/settlement_engine/internal/platform/metrics"
	"github.com/SscSPs/settlement_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/settlement_engine/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Services *portssvc.ServiceContainer
	Health   portsrepo.HealthChecker
	Metrics  *metrics.Metrics
	Redis    redis.UniversalClient

	pool *pgxpool.Pool
}

// Options adjusts what New sets up.
type Options struct {
	// Migrate applies pending up migrations before the repositories are built.
	Migrate bool
	Metrics *metrics.Metrics
}

// New connects to the configured store and builds the service container.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Metrics: opts.Metrics}

	var repos portsrepo.RepositoryProvider
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		repos = *memory.NewStore().Provider()
	default:
		if opts.Migrate {
			logger.Info("Running database migrations...")
			if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, database.MigrateUp, logger); err != nil {
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		a.pool = pool
		repos = pgsql.NewRepositoryProvider(pool)
	}
	a.Health = repos.Health

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Redis = redisClient

	var locker portsrepo.LedgerLocker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, lock.WithLockTTL(cfg.LedgerLockTTL), lock.WithLockLogger(logger))
		logger.Info("Using Redis ledger lock", slog.Duration("ttl", cfg.LedgerLockTTL))
	}

	a.Services = services.NewServiceContainer(repos,
		services.WithLedgerLocker(locker),
		services.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
		services.WithImportTTL(cfg.ImportStagingTTL),
		services.WithMetrics(opts.Metrics),
	)
	return a, nil
}

// Close releases the database pool and Redis client.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("Error closing redis client", slog.String("error", err.Error()))
		}
	}
	database.ClosePgxPool(a.pool)
}
