// Package model loads fitted speed regressors from JSON artifacts.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/ports"
)

// Artifact kinds.
const (
	KindLinear           = "linear"
	KindGradientBoosting = "gradient_boosting"
)

// Artifact is the on-disk model bundle: metadata, the ordered feature
// columns and the parameters of exactly one model kind.
type Artifact struct {
	Name             string                  `json:"name"`
	Version          string                  `json:"version"`
	Kind             string                  `json:"kind"`
	FeatureCols      []string                `json:"feature_cols"`
	Linear           *LinearParams           `json:"linear,omitempty"`
	GradientBoosting *GradientBoostingParams `json:"gradient_boosting,omitempty"`
}

// Load reads and decodes the artifact at path.
func Load(path string) (ports.SpeedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ModelUnavailable(fmt.Sprintf("Model not found at %s", path), nil)
		}
		return nil, domain.ModelUnavailable(fmt.Sprintf("read model %s", path), err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Decode builds a SpeedModel from artifact JSON.
func Decode(data []byte) (ports.SpeedModel, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, domain.ModelUnavailable("decode model artifact", err)
	}
	m, err := a.Build()
	if err != nil {
		return nil, domain.ModelUnavailable("invalid model artifact", err)
	}
	return m, nil
}

// Build validates the artifact and returns the model it describes.
func (a Artifact) Build() (ports.SpeedModel, error) {
	if len(a.FeatureCols) == 0 {
		return nil, errors.New("feature_cols is empty")
	}
	if a.Name == "" {
		a.Name = "hiking_speed"
	}
	info := domain.ModelInfo{
		Name:           a.Name,
		Version:        a.Version,
		Kind:           a.Kind,
		FeatureColumns: append([]string(nil), a.FeatureCols...),
	}

	switch a.Kind {
	case KindLinear:
		if a.Linear == nil {
			return nil, errors.New("linear parameters missing")
		}
		return newLinear(info, *a.Linear)
	case KindGradientBoosting:
		if a.GradientBoosting == nil {
			return nil, errors.New("gradient_boosting parameters missing")
		}
		return newGradientBoosting(info, *a.GradientBoosting)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}

func checkWidth(info domain.ModelInfo, x []float64) error {
	if len(x) != len(info.FeatureColumns) {
		return fmt.Errorf("expected %d features, got %d", len(info.FeatureColumns), len(x))
	}
	return nil
}
