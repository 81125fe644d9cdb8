package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boxoffice/cmd/sweeper/jobs"
	"boxoffice/internal/app"
	"boxoffice/internal/cache"
	"boxoffice/internal/config"
	"boxoffice/internal/consumers"
	"boxoffice/internal/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting sweeper service...")

	// Override NATS client ID for the worker
	cfg.NATS.ClientID = "boxoffice-sweeper"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}

	var lease jobs.Lease
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		defer rdb.Close()
		lease = cache.NewSweepLock(rdb, cfg.SweepLockKey, cfg.SweepLockTTL)
	}

	job := jobs.NewHoldExpirationJob(a.Services.Sweeper, lease, cfg.SweepInterval)
	job.Start(ctx)

	var consumerService *consumers.ConsumerService
	if a.NATS != nil && a.Indexer != nil {
		consumerService = consumers.NewConsumerService(a.NATS, a.Indexer)
		if err := consumerService.Start(); err != nil {
			logger.Fatal("Failed to start consumers", "error", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()

	log.Info("Sweeper service started", "interval", cfg.SweepInterval, "metrics_port", cfg.MetricsPort)

	<-ctx.Done()
	log.Info("Shutting down sweeper service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	job.Stop()
	if consumerService != nil {
		if err := consumerService.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during consumer shutdown", "error", err)
		}
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping metrics server", "error", err)
	}
	if err := a.Close(); err != nil {
		log.Error("Error during cleanup", "error", err)
	}

	log.Info("Sweeper service stopped")
}
