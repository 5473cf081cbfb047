// Package app wires configuration into a ready prediction service and the
// optional backing services around it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	natsadapter "github.com/samirrijal/trailpace/internal/adapters/nats"
	"github.com/samirrijal/trailpace/internal/adapters/model"
	"github.com/samirrijal/trailpace/internal/adapters/postgres"
	"github.com/samirrijal/trailpace/internal/adapters/sqlite"
	"github.com/samirrijal/trailpace/internal/adapters/valkey"
	"github.com/samirrijal/trailpace/internal/core/ports"
	"github.com/samirrijal/trailpace/internal/core/usecases"
	"github.com/samirrijal/trailpace/internal/pkg/config"
)

// Runtime holds the prediction service and whatever backing services the
// configuration enabled. Unused services are nil.
type Runtime struct {
	Predictions *usecases.PredictionService

	Postgres  *postgres.DB
	SQLite    *sqlite.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	closers []func()
}

// Build loads the model and connects the configured services. The model is
// required; cache and NATS failures only degrade the runtime.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	m, err := model.Load(cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("speed model loaded", "model", m.Info().Label(), "kind", m.Info().Kind)

	var repo ports.PredictionRepository
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.Postgres = db
		rt.closers = append(rt.closers, db.Close)
		repo = postgres.NewPredictionRepo(db)
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite migrate: %w", err)
		}
		rt.SQLite = db
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		repo = sqlite.NewPredictionRepo(db)
	}

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, "trailpace:")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			rt.Cache = c
			rt.closers = append(rt.closers, c.Close)
			cache = c
		}
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			rt.Publisher = p
			rt.closers = append(rt.closers, p.Close)
			events = p
		}
	}

	opts := usecases.Options{
		WindowM:     cfg.Prediction.WindowM,
		MinSpeedKmh: cfg.Prediction.MinSpeedKmh,
		MinSegmentM: cfg.Prediction.MinSegmentM,
	}
	svc, err := usecases.NewPredictionService(m, opts, repo, cache, events)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Predictions = svc.WithCacheTTL(cfg.Cache.TTLSeconds)

	return rt, nil
}

// Storage returns the configured prediction store for health checks, or nil.
func (rt *Runtime) Storage() interface{ Ping(context.Context) error } {
	switch {
	case rt.Postgres != nil:
		return rt.Postgres
	case rt.SQLite != nil:
		return rt.SQLite
	}
	return nil
}

// Close releases services in reverse order of connection.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
