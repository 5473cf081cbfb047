package domain

import (
	"fmt"
	"math"
	"strings"
)

// Canonical feature column names.
const (
	FeatureSlope           = "slope"
	FeatureFatigue         = "fatigue"
	FeatureUphill          = "uphill"
	FeatureDownhill        = "downhill"
	FeatureDownhillFatigue = "downhill_fatigue"
	FeatureUphillFatigue   = "uphill_fatigue"
	FeatureSlopeSquared    = "slope_squared"
	FeatureFatigueSquared  = "fatigue_squared"
)

// FeatureNames lists every column a FeatureVector can provide.
var FeatureNames = []string{
	FeatureSlope,
	FeatureFatigue,
	FeatureUphill,
	FeatureDownhill,
	FeatureDownhillFatigue,
	FeatureUphillFatigue,
	FeatureSlopeSquared,
	FeatureFatigueSquared,
}

// FeatureVector is the model input derived from slope and accumulated
// hiking time (fatigue).
type FeatureVector struct {
	Slope           float64 `json:"slope"`
	Fatigue         float64 `json:"fatigue"`
	Uphill          float64 `json:"uphill"`
	Downhill        float64 `json:"downhill"`
	DownhillFatigue float64 `json:"downhill_fatigue"`
	UphillFatigue   float64 `json:"uphill_fatigue"`
	SlopeSquared    float64 `json:"slope_squared"`
	FatigueSquared  float64 `json:"fatigue_squared"`
}

// BuildFeatures derives the feature vector for a segment starting at
// slopePercent after cumulativeHours of hiking.
func BuildFeatures(slopePercent, cumulativeHours float64) FeatureVector {
	uphill := math.Max(0, slopePercent)
	downhill := math.Abs(math.Min(0, slopePercent))
	return FeatureVector{
		Slope:           slopePercent,
		Fatigue:         cumulativeHours,
		Uphill:          uphill,
		Downhill:        downhill,
		DownhillFatigue: downhill * cumulativeHours,
		UphillFatigue:   uphill * cumulativeHours,
		SlopeSquared:    slopePercent * slopePercent,
		FatigueSquared:  cumulativeHours * cumulativeHours,
	}
}

func (f FeatureVector) value(column int) float64 {
	switch column {
	case 0:
		return f.Slope
	case 1:
		return f.Fatigue
	case 2:
		return f.Uphill
	case 3:
		return f.Downhill
	case 4:
		return f.DownhillFatigue
	case 5:
		return f.UphillFatigue
	case 6:
		return f.SlopeSquared
	default:
		return f.FatigueSquared
	}
}

// FeatureLayout maps a FeatureVector onto a model's declared column order.
type FeatureLayout struct {
	columns []string
	index   []int
}

// NewFeatureLayout validates the model's column list. Unknown and
// duplicate columns are rejected.
func NewFeatureLayout(columns []string) (FeatureLayout, error) {
	if len(columns) == 0 {
		return FeatureLayout{}, fmt.Errorf("model declares no feature columns")
	}

	known := make(map[string]int, len(FeatureNames))
	for i, name := range FeatureNames {
		known[name] = i
	}

	seen := make(map[string]bool, len(columns))
	layout := FeatureLayout{
		columns: append([]string(nil), columns...),
		index:   make([]int, len(columns)),
	}
	var unknown []string
	for i, col := range columns {
		idx, ok := known[col]
		if !ok {
			unknown = append(unknown, col)
			continue
		}
		if seen[col] {
			return FeatureLayout{}, fmt.Errorf("feature column %q declared twice", col)
		}
		seen[col] = true
		layout.index[i] = idx
	}
	if len(unknown) > 0 {
		return FeatureLayout{}, fmt.Errorf("unknown feature columns: %s", strings.Join(unknown, ", "))
	}
	return layout, nil
}

// Columns returns the model's column order.
func (l FeatureLayout) Columns() []string {
	return append([]string(nil), l.columns...)
}

// Len is the number of model inputs.
func (l FeatureLayout) Len() int { return len(l.index) }

// Vector orders f by the layout.
func (l FeatureLayout) Vector(f FeatureVector) []float64 {
	out := make([]float64, len(l.index))
	for i, idx := range l.index {
		out[i] = f.value(idx)
	}
	return out
}
