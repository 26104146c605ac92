package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/inkpath/engine/internal/queue/tasks"
	"github.com/inkpath/engine/internal/repository"
	"github.com/inkpath/engine/pkg/config"
	"github.com/inkpath/engine/pkg/database"
	"github.com/inkpath/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting inkpath worker",
		zap.String("env", cfg.AppEnv),
		zap.String("redis", cfg.RedisAddr),
		zap.Int("concurrency", cfg.AsynqConcurrency),
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Fail fast if redis is unreachable rather than letting asynq retry forever.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	_ = rdb.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	notifRepo := repository.NewNotificationRepository(db)
	notifHandler := tasks.NewNotificationTaskHandler(notifRepo)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationDeliver, notifHandler.HandleDeliver)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("worker error", zap.Error(err))
	}

	srv.Shutdown()
	log.Info("worker exited gracefully")
}
