package domain

// ChartPoint is one x/y sample of a chart series.
type ChartPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Charts holds the series a presentation layer plots for a prediction.
type Charts struct {
	// DistanceOverTime: x = elapsed hours, y = km.
	DistanceOverTime []ChartPoint `json:"distance_over_time"`
	// SpeedProfile: x = km, y = km/h.
	SpeedProfile []ChartPoint `json:"speed_profile"`
	// ElevationProfile: x = km, y = smoothed meters.
	ElevationProfile []ChartPoint `json:"elevation_profile"`
}

// Charts derives the chart series from the segments.
func (p *Prediction) Charts() Charts {
	c := Charts{
		DistanceOverTime: make([]ChartPoint, 0, len(p.Segments)),
		SpeedProfile:     make([]ChartPoint, 0, len(p.Segments)),
		ElevationProfile: make([]ChartPoint, 0, len(p.Segments)),
	}
	for _, s := range p.Segments {
		c.DistanceOverTime = append(c.DistanceOverTime, ChartPoint{X: s.CumulativeTimeHours, Y: s.CumulativeDistanceKm})
		c.SpeedProfile = append(c.SpeedProfile, ChartPoint{X: s.CumulativeDistanceKm, Y: s.PredictedSpeedKmh})
		c.ElevationProfile = append(c.ElevationProfile, ChartPoint{X: s.CumulativeDistanceKm, Y: s.ElevationM})
	}
	return c
}
