package ports

import (
	"context"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// SpeedModel is a fitted regression model mapping one feature row, ordered
// as Info().FeatureColumns, to a walking speed in km/h. Implementations must
// be safe for concurrent use.
type SpeedModel interface {
	Info() domain.ModelInfo
	Predict(ctx context.Context, features []float64) (float64, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, p *domain.Prediction) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
