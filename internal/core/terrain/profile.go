package terrain

import (
	"fmt"

	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/pkg/geospatial"
)

// Profile holds parallel cumulative-distance and raw-elevation arrays.
// Distances[0] is 0 and the sequence is non-decreasing.
type Profile struct {
	Distances  []float64
	Elevations []float64
}

// BuildProfile accumulates the ellipsoidal distance between consecutive
// points. Coincident points contribute 0 and stay as distinct entries.
func BuildProfile(points []domain.RoutePoint) (Profile, error) {
	if len(points) < domain.MinRoutePoints {
		return Profile{}, domain.InsufficientPoints(len(points))
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return Profile{}, domain.PredictionFailure(fmt.Sprintf("invalid point %d", i), err)
		}
	}

	prof := Profile{
		Distances:  make([]float64, len(points)),
		Elevations: make([]float64, len(points)),
	}
	prof.Elevations[0] = points[0].Elevation
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		prof.Distances[i] = prof.Distances[i-1] + geospatial.Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		prof.Elevations[i] = cur.Elevation
	}
	return prof, nil
}

// Len is the number of points.
func (p Profile) Len() int { return len(p.Distances) }

// TotalDistance is the cumulative distance at the last point in meters.
func (p Profile) TotalDistance() float64 {
	if len(p.Distances) == 0 {
		return 0
	}
	return p.Distances[len(p.Distances)-1]
}
