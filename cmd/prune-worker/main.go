package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saurabh8101998/HMS/internal/config"
	"github.com/saurabh8101998/HMS/internal/db"
	"github.com/saurabh8101998/HMS/internal/observability/metrics"
	redisclient "github.com/saurabh8101998/HMS/internal/redis"
	"github.com/saurabh8101998/HMS/internal/schedule"
)

// prune-worker periodically removes past-dated available slots so stale hours
// are never offered for booking.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}
	if cfg.PostgresDSN == "" {
		panic("POSTGRES_DSN is required for the prune worker")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("prune-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.PruneInterval))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	var locker redisclient.Locker
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		locker = redisclient.NewProviderLocker(rdb, cfg.LockTTL)
		logger.Info("connected to Redis")
	} else {
		locker = schedule.NewLocalLocker()
	}

	repo := schedule.NewPgRepository(pgPool)
	notifier := schedule.NewRepoNotifier(repo)
	svc := schedule.NewService(repo, locker, notifier, logger, metrics.New())

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping prune worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *schedule.Service, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.PrunePastSlots(runCtx, time.Now()); err != nil {
		logger.Error("prune run error", zap.Error(err))
		return
	}
	logger.Info("prune run complete", zap.Duration("took", time.Since(start)))
}
