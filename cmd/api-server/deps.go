package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saurabh8101998/HMS/internal/config"
	"github.com/saurabh8101998/HMS/internal/db"
	redisclient "github.com/saurabh8101998/HMS/internal/redis"
	"github.com/saurabh8101998/HMS/internal/schedule"
)

// dependencies holds the wired storage and locking backends. With no Postgres
// DSN configured the process runs the in-memory model, and with no Redis
// address the in-process locker.
type dependencies struct {
	repo   schedule.Repository
	locker redisclient.Locker
	pgPool *pgxpool.Pool
	redis  *redis.Client
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.PostgresDSN != "" {
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		deps.pgPool = pool
		deps.repo = schedule.NewPgRepository(pool)
		logger.Info("connected to Postgres")
	} else {
		deps.repo = schedule.NewMemoryRepository()
		logger.Info("running on the in-memory model")
	}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			if deps.pgPool != nil {
				deps.pgPool.Close()
			}
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.redis = rdb
		deps.locker = redisclient.NewProviderLocker(rdb, cfg.LockTTL)
		logger.Info("connected to Redis")
	} else {
		deps.locker = schedule.NewLocalLocker()
		logger.Info("using in-process provider locks")
	}

	return deps, nil
}

func (d *dependencies) close(logger *zap.Logger) {
	if d.pgPool != nil {
		d.pgPool.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}
}
