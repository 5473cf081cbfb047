package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trailpace/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Predictions *usecases.PredictionService
	NATS        *nats.Conn
	// Storage and Cache are nil when not configured.
	Storage Pinger
	Cache   Pinger
	Version string
}
