package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/trailpace/internal/adapters/gpx"
	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/usecases"
)

// PredictionActivities holds the activity implementations for the route
// prediction workflow.
type PredictionActivities struct {
	Predictions *usecases.PredictionService
}

// ParseGPX decodes a GPX document into its name and ordered points.
// Malformed documents are not retried.
func (a *PredictionActivities) ParseGPX(ctx context.Context, data []byte) (*gpx.Route, error) {
	r, err := gpx.Parse(data)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidGPX, err)
	}
	return r, nil
}

// PredictRoute runs one prediction. Input problems are not retried; a
// model that is down is.
func (a *PredictionActivities) PredictRoute(ctx context.Context, name string, points []domain.RoutePoint) (RouteResult, error) {
	activity.GetLogger(ctx).Info("predicting route", "name", name, "points", len(points))

	p, err := a.Predictions.Predict(ctx, name, points)
	if err != nil {
		kind := domain.KindOf(err)
		if kind == domain.KindModelUnavailable {
			return RouteResult{}, temporal.NewApplicationErrorWithCause(err.Error(), string(kind), err)
		}
		return RouteResult{}, temporal.NewNonRetryableApplicationError(err.Error(), string(kind), err)
	}
	return RouteResult{
		Name:            p.Name,
		ID:              p.ID,
		Success:         true,
		TotalDistanceKm: p.TotalDistanceKm,
		TotalTimeHours:  p.TotalTimeHours,
		FormattedTime:   domain.FormatDuration(p.TotalTimeHours),
	}, nil
}

const errTypeInvalidGPX = "invalid_gpx"

// failureOf recovers the failure kind carried by an activity error.
func failureOf(err error) (kind, message string) {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type(), appErr.Message()
	}
	return string(domain.KindPredictionFailure), err.Error()
}
