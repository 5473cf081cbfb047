package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/trailpace/internal/app"
	"github.com/samirrijal/trailpace/internal/pkg/config"
	"github.com/samirrijal/trailpace/internal/pkg/logging"
	"github.com/samirrijal/trailpace/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.Load("trailpace-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	rt, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer rt.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.PredictRoutesWorkflow)
	w.RegisterActivity(&workflows.PredictionActivities{Predictions: rt.Predictions})

	slog.Info("prediction worker started", "task_queue", cfg.Temporal.TaskQueue, "model", rt.Predictions.ModelInfo().Label())
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
