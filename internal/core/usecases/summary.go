package usecases

import (
	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/terrain"
)

// Summarize aggregates route totals. Gain and loss run over every smoothed
// point, including the ones whose segments were skipped.
func Summarize(prof terrain.Profile, smoothed []float64, totalTimeHours float64) domain.Summary {
	s := domain.Summary{
		TotalDistanceKm: prof.TotalDistance() / 1000,
		TotalTimeHours:  totalTimeHours,
	}
	for i := 1; i < len(smoothed); i++ {
		delta := smoothed[i] - smoothed[i-1]
		if delta > 0 {
			s.ElevationGainM += delta
		} else {
			s.ElevationLossM -= delta
		}
	}
	if totalTimeHours > 0 {
		s.AverageSpeedKmh = s.TotalDistanceKm / totalTimeHours
	}
	return s
}
