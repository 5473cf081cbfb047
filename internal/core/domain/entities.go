package domain

import (
	"fmt"
	"math"
	"time"
)

// RoutePoint is one sample of a hiking route (WGS 84). Elevation is in meters
// and defaults to 0 when the source has none. Slice order is the hiking direction.
type RoutePoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"ele"`
}

// Validate reports coordinates that cannot be placed on the ellipsoid.
func (p RoutePoint) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("latitude %v out of range", p.Lat)
	case math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180:
		return fmt.Errorf("longitude %v out of range", p.Lon)
	case math.IsNaN(p.Elevation) || math.IsInf(p.Elevation, 0):
		return fmt.Errorf("elevation %v is not finite", p.Elevation)
	}
	return nil
}

// Segment is the stretch between two consecutive kept points.
// DistanceKm and CumulativeDistanceKm are measured at the segment start.
// StartTimeHours is the elapsed time before the segment, CumulativeTimeHours after it.
type Segment struct {
	DistanceKm           float64 `json:"distance_km"`
	ElevationM           float64 `json:"elevation_m"`
	SlopePercent         float64 `json:"slope_percent"`
	PredictedSpeedKmh    float64 `json:"predicted_speed_kmh"`
	StartTimeHours       float64 `json:"start_time_hours"`
	CumulativeTimeHours  float64 `json:"cumulative_time_hours"`
	CumulativeDistanceKm float64 `json:"cumulative_distance_km"`
	SegmentDistanceM     float64 `json:"segment_distance_m"`
	SegmentTimeHours     float64 `json:"segment_time_hours"`
}

// Summary holds the aggregate statistics of a route prediction.
type Summary struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTimeHours  float64 `json:"total_time_hours"`
	ElevationGainM  float64 `json:"elevation_gain_m"`
	ElevationLossM  float64 `json:"elevation_loss_m"`
	AverageSpeedKmh float64 `json:"average_speed_kmh"`
}

// Prediction is a successful route time prediction.
type Prediction struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Model      string `json:"model"`
	PointCount int    `json:"point_count"`
	Bounds     Bounds `json:"bounds"`
	Summary
	Segments  []Segment `json:"segments"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview returns the list view of the prediction.
func (p *Prediction) Overview() PredictionOverview {
	return PredictionOverview{
		ID:         p.ID,
		Name:       p.Name,
		Model:      p.Model,
		PointCount: p.PointCount,
		Summary:    p.Summary,
		CreatedAt:  p.CreatedAt,
	}
}

// PredictionOverview is a stored prediction without its segments.
type PredictionOverview struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Model      string `json:"model"`
	PointCount int    `json:"point_count"`
	Summary
	CreatedAt time.Time `json:"created_at"`
}

// ModelInfo describes a loaded speed model.
type ModelInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Kind           string   `json:"kind"`
	FeatureColumns []string `json:"feature_columns"`
}

// Label identifies the model on stored predictions, e.g. "hiking_speed@2024.1".
func (m ModelInfo) Label() string {
	if m.Version == "" {
		return m.Name
	}
	return m.Name + "@" + m.Version
}
