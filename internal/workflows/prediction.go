package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/trailpace/internal/adapters/gpx"
	"github.com/samirrijal/trailpace/internal/core/domain"
)

// RouteInput is one route of a batch: either a GPX document or a point list.
type RouteInput struct {
	Name   string
	GPX    []byte
	Points []domain.RoutePoint
}

// PredictRoutesInput is the input for the batch prediction workflow.
type PredictRoutesInput struct {
	Routes []RouteInput
}

// RouteResult is the outcome of one route. Failed routes carry the failure
// kind and message instead of times.
type RouteResult struct {
	Name            string  `json:"name"`
	ID              string  `json:"id,omitempty"`
	Success         bool    `json:"success"`
	TotalDistanceKm float64 `json:"total_distance_km,omitempty"`
	TotalTimeHours  float64 `json:"total_time_hours,omitempty"`
	FormattedTime   string  `json:"formatted_time,omitempty"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// PredictRoutesWorkflow predicts each route in order. A failing route is
// recorded and the batch continues.
func PredictRoutesWorkflow(ctx workflow.Context, input PredictRoutesInput) ([]RouteResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting route prediction workflow", "routes", len(input.Routes))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	results := make([]RouteResult, 0, len(input.Routes))
	for i, route := range input.Routes {
		name := route.Name
		points := route.Points

		if len(route.GPX) > 0 {
			var parsed gpx.Route
			if err := workflow.ExecuteActivity(ctx, "ParseGPX", route.GPX).Get(ctx, &parsed); err != nil {
				kind, msg := failureOf(err)
				results = append(results, RouteResult{Name: name, ErrorKind: kind, Error: msg})
				logger.Warn("route GPX rejected", "index", i, "error", msg)
				continue
			}
			if name == "" {
				name = parsed.Name
			}
			points = parsed.Points
		}

		var res RouteResult
		if err := workflow.ExecuteActivity(ctx, "PredictRoute", name, points).Get(ctx, &res); err != nil {
			kind, msg := failureOf(err)
			results = append(results, RouteResult{Name: name, ErrorKind: kind, Error: msg})
			logger.Warn("route prediction failed", "index", i, "kind", kind)
			continue
		}
		results = append(results, res)
	}

	logger.Info("Route prediction workflow finished", "routes", len(results))
	return results, nil
}
