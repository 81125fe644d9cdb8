// Package app wires configuration, storage and adapters into the services
// shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/external"
	"boxoffice/internal/messaging"
	"boxoffice/internal/repository"
	"boxoffice/internal/search"
	"boxoffice/internal/service"
)

type App struct {
	Config   *config.Config
	DB       *database.DB
	Repos    *repository.Repositories
	Services *service.Services
	NATS     *messaging.NATSClient
	Indexer  *search.OrderIndexer

	closers []func() error
}

// New connects to PostgreSQL, runs migrations and, when enabled, connects
// NATS Streaming and Elasticsearch.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.DB, err = database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, a.DB.Close)

	if err := a.DB.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.Repos = repository.NewRepositories(a.DB)

	if cfg.NATS.Enabled {
		a.NATS, err = messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.NATS.Close)
	}

	if cfg.Elasticsearch.Enabled {
		es, err := search.NewClient(cfg.Elasticsearch)
		if err != nil {
			return nil, err
		}
		a.Indexer = search.NewOrderIndexer(es, cfg.Elasticsearch.Index, a.Repos.Orders())
		if err := a.Indexer.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure index exists: %w", err)
		}
	}

	a.Services = service.NewServices(a.Repos, NewAuthorizer(cfg.Payment),
		service.WithHoldDuration(cfg.HoldDuration),
		service.WithNotifier(a.notifiers()),
	)
	return a, nil
}

// notifiers publishes to NATS when it is available and lets the consumers
// index from there. Without NATS the index is updated in-process.
func (a *App) notifiers() service.Notifiers {
	var ns service.Notifiers
	switch {
	case a.NATS != nil:
		ns = append(ns, messaging.NewOrderEventPublisher(a.NATS))
	case a.Indexer != nil:
		ns = append(ns, a.Indexer)
	}
	return ns
}

func NewAuthorizer(cfg external.PaymentConfig) service.PaymentAuthorizer {
	if cfg.Mode == "gateway" {
		slog.Info("Using payment gateway", "url", cfg.BaseURL)
		return external.NewPaymentClient(cfg)
	}
	slog.Warn("Using sandbox payment authorizer")
	return external.SandboxAuthorizer{}
}

// Close закрывает соединения в обратном порядке
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
