package ports

import (
	"context"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// PredictionRepository persists prediction history.
type PredictionRepository interface {
	Save(ctx context.Context, p *domain.Prediction) error
	GetByID(ctx context.Context, id string) (*domain.Prediction, error)
	// ListRecent returns overviews newest first and the total number stored.
	ListRecent(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error)
}
