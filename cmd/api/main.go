package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/trailpace/internal/adapters/http"
	natsadapter "github.com/samirrijal/trailpace/internal/adapters/nats"
	"github.com/samirrijal/trailpace/internal/app"
	"github.com/samirrijal/trailpace/internal/pkg/config"
	"github.com/samirrijal/trailpace/internal/pkg/logging"
	"github.com/samirrijal/trailpace/internal/pkg/metrics"
	"github.com/samirrijal/trailpace/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	// .env.local overrides .env; neither is required.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.Load("trailpace-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	rt, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer rt.Close()

	deps := &http.Dependencies{
		Predictions: rt.Predictions,
		Version:     version,
	}
	if s := rt.Storage(); s != nil {
		deps.Storage = s
	}
	if rt.Cache != nil {
		deps.Cache = rt.Cache
	}

	// Raw NATS connection for WebSocket relay
	if cfg.NATS.Enabled {
		nc, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			deps.NATS = nc
			defer nc.Close()
		}
	}

	if rt.Postgres != nil {
		go reportPool(ctx, rt)
	}

	server := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "Trailpace API",
	})
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(server, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "model", rt.Predictions.ModelInfo().Label(), "storage", cfg.Storage.Driver)
		if err := server.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPool publishes Postgres pool gauges every 15s until ctx ends.
func reportPool(ctx context.Context, rt *app.Runtime) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(rt.Postgres.Stat())
		case <-ctx.Done():
			return
		}
	}
}
