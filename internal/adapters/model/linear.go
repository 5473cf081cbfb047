package model

import (
	"context"
	"fmt"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// LinearParams is an ordinary least squares fit.
type LinearParams struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Linear predicts intercept + coefficients·x.
type Linear struct {
	info   domain.ModelInfo
	params LinearParams
}

func newLinear(info domain.ModelInfo, p LinearParams) (*Linear, error) {
	if len(p.Coefficients) != len(info.FeatureColumns) {
		return nil, fmt.Errorf("linear model has %d coefficients for %d feature columns",
			len(p.Coefficients), len(info.FeatureColumns))
	}
	return &Linear{info: info, params: p}, nil
}

func (m *Linear) Info() domain.ModelInfo { return m.info }

func (m *Linear) Predict(_ context.Context, x []float64) (float64, error) {
	if err := checkWidth(m.info, x); err != nil {
		return 0, err
	}
	y := m.params.Intercept
	for i, c := range m.params.Coefficients {
		y += c * x[i]
	}
	return y, nil
}
