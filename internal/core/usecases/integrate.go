package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/ports"
	"github.com/samirrijal/trailpace/internal/core/terrain"
)

// Options tunes the route pipeline.
type Options struct {
	// WindowM is the smoothing and slope window in meters.
	WindowM float64
	// MinSpeedKmh floors every predicted speed.
	MinSpeedKmh float64
	// MinSegmentM drops point pairs closer than this as sampling noise.
	MinSegmentM float64
}

// DefaultOptions returns the pipeline defaults: 100 m window, 0.5 km/h
// floor, 1 m minimum segment.
func DefaultOptions() Options {
	return Options{
		WindowM:     terrain.DefaultWindowM,
		MinSpeedKmh: 0.5,
		MinSegmentM: 1,
	}
}

func (o Options) validate() error {
	switch {
	case o.WindowM <= 0:
		return fmt.Errorf("window must be positive, got %v", o.WindowM)
	case o.MinSpeedKmh <= 0:
		return fmt.Errorf("minimum speed must be positive, got %v", o.MinSpeedKmh)
	case o.MinSegmentM < 0:
		return fmt.Errorf("minimum segment length must not be negative, got %v", o.MinSegmentM)
	}
	return nil
}

// Integration is the output of the segment loop.
type Integration struct {
	Segments       []domain.Segment
	TotalTimeHours float64
	// FloorApplied counts segments whose raw prediction was raised to the floor.
	FloorApplied int
}

// Integrate walks the route left to right, predicting a speed for every
// kept segment from its slope and the time already spent hiking, and
// threads the cumulative time through the loop. Each step depends on the
// previous one, so the loop is strictly sequential.
func Integrate(
	ctx context.Context,
	model ports.SpeedModel,
	layout domain.FeatureLayout,
	prof terrain.Profile,
	smoothed []float64,
	opts Options,
) (Integration, error) {
	d := prof.Distances
	if len(smoothed) != len(d) {
		return Integration{}, domain.PredictionFailure(
			fmt.Sprintf("smoothed elevations (%d) do not match profile (%d)", len(smoothed), len(d)), nil)
	}

	out := Integration{Segments: make([]domain.Segment, 0, len(d))}
	var cumulative float64
	for i := 0; i+1 < len(d); i++ {
		segM := d[i+1] - d[i]
		if segM < opts.MinSegmentM {
			continue
		}

		slope := terrain.SlopeAt(smoothed, d, i, opts.WindowM)
		row := layout.Vector(domain.BuildFeatures(slope, cumulative))

		speed, err := model.Predict(ctx, row)
		if err != nil {
			return Integration{}, domain.PredictionFailure(fmt.Sprintf("model inference failed at point %d", i), err)
		}
		// NaN fails the comparison and floors too.
		if !(speed >= opts.MinSpeedKmh) {
			speed = opts.MinSpeedKmh
			out.FloorApplied++
		}

		segHours := (segM / 1000) / speed
		start := cumulative
		cumulative += segHours

		out.Segments = append(out.Segments, domain.Segment{
			DistanceKm:           d[i] / 1000,
			ElevationM:           smoothed[i],
			SlopePercent:         slope,
			PredictedSpeedKmh:    speed,
			StartTimeHours:       start,
			CumulativeTimeHours:  cumulative,
			CumulativeDistanceKm: d[i] / 1000,
			SegmentDistanceM:     segM,
			SegmentTimeHours:     segHours,
		})
	}
	out.TotalTimeHours = cumulative
	return out, nil
}
