package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

func TestPredictionError_Is(t *testing.T) {
	err := fmt.Errorf("predict route: %w", domain.InsufficientPoints(1))

	if !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Errorf("expected errors.Is to match ErrInsufficientPoints")
	}
	if errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("did not expect ErrModelUnavailable to match")
	}
	if got := domain.KindOf(err); got != domain.KindInsufficientPoints {
		t.Errorf("expected %s, got %s", domain.KindInsufficientPoints, got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want domain.ErrorKind
	}{
		{domain.ModelUnavailable("model not found", nil), domain.KindModelUnavailable},
		{fmt.Errorf("wrap: %w", domain.ErrModelUnavailable), domain.KindModelUnavailable},
		{domain.PredictionFailure("inference", errors.New("boom")), domain.KindPredictionFailure},
		{errors.New("anything else"), domain.KindPredictionFailure},
	}
	for _, c := range cases {
		if got := domain.KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestNewOutcome_Failure(t *testing.T) {
	out := domain.NewOutcome(nil, domain.InsufficientPoints(0))
	if out.Success {
		t.Fatal("expected failed outcome")
	}
	if out.ErrorKind != domain.KindInsufficientPoints {
		t.Errorf("expected %s, got %s", domain.KindInsufficientPoints, out.ErrorKind)
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["segments"]; ok {
		t.Errorf("failed outcome must not carry segments: %s", data)
	}
	if raw["success"] != false {
		t.Errorf("expected success=false, got %v", raw["success"])
	}
}

func TestNewOutcome_Success(t *testing.T) {
	p := &domain.Prediction{
		ID:       "p1",
		Summary:  domain.Summary{TotalDistanceKm: 12.4, TotalTimeHours: 3.75},
		Segments: []domain.Segment{{DistanceKm: 0}},
	}
	out := domain.NewOutcome(p, nil)
	if !out.Success {
		t.Fatal("expected success")
	}
	if out.FormattedTime != "3h 45m" {
		t.Errorf("expected 3h 45m, got %s", out.FormattedTime)
	}

	data, _ := json.Marshal(out)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if raw["total_distance_km"] != 12.4 {
		t.Errorf("expected flattened total_distance_km, got %v", raw["total_distance_km"])
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		0:     "0h 0m",
		0.2:   "0h 12m",
		1.5:   "1h 30m",
		10.99: "10h 59m",
	}
	for hours, want := range cases {
		if got := domain.FormatDuration(hours); got != want {
			t.Errorf("FormatDuration(%v) = %s, want %s", hours, got, want)
		}
	}
}

func TestPredictionCharts(t *testing.T) {
	p := &domain.Prediction{Segments: []domain.Segment{
		{CumulativeDistanceKm: 0, CumulativeTimeHours: 0.1, PredictedSpeedKmh: 5, ElevationM: 100},
		{CumulativeDistanceKm: 0.5, CumulativeTimeHours: 0.2, PredictedSpeedKmh: 4, ElevationM: 120},
	}}
	c := p.Charts()
	if len(c.DistanceOverTime) != 2 || len(c.SpeedProfile) != 2 || len(c.ElevationProfile) != 2 {
		t.Fatalf("unexpected series lengths: %+v", c)
	}
	if c.DistanceOverTime[1] != (domain.ChartPoint{X: 0.2, Y: 0.5}) {
		t.Errorf("unexpected distance point: %+v", c.DistanceOverTime[1])
	}
	if c.ElevationProfile[1] != (domain.ChartPoint{X: 0.5, Y: 120}) {
		t.Errorf("unexpected elevation point: %+v", c.ElevationProfile[1])
	}
}
