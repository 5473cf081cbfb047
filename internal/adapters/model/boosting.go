package model

import (
	"context"
	"fmt"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// leaf marks a node without children in the exported tree arrays.
const leaf = -1

// GradientBoostingParams is a boosted ensemble of regression trees:
// y = init + learning_rate * sum(tree(x)).
type GradientBoostingParams struct {
	Init         float64    `json:"init"`
	LearningRate float64    `json:"learning_rate"`
	Trees        []TreeNode `json:"trees"`
}

// TreeNode holds one regression tree as parallel node arrays. Node 0 is the
// root; a sample goes left when x[feature] <= threshold.
type TreeNode struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t TreeNode) validate(width int) error {
	n := len(t.Value)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n {
		return fmt.Errorf("tree node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf && r == leaf {
			continue
		}
		// Children always follow their parent, which also rules out cycles.
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= width {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], width)
		}
	}
	return nil
}

func (t TreeNode) eval(x []float64) float64 {
	n := 0
	for t.ChildrenLeft[n] != leaf {
		if x[t.Feature[n]] <= t.Threshold[n] {
			n = t.ChildrenLeft[n]
		} else {
			n = t.ChildrenRight[n]
		}
	}
	return t.Value[n]
}

// GradientBoosting evaluates a boosted tree ensemble.
type GradientBoosting struct {
	info   domain.ModelInfo
	params GradientBoostingParams
}

func newGradientBoosting(info domain.ModelInfo, p GradientBoostingParams) (*GradientBoosting, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("gradient boosting model has no trees")
	}
	if p.LearningRate <= 0 {
		return nil, fmt.Errorf("learning_rate must be positive, got %v", p.LearningRate)
	}
	for i, t := range p.Trees {
		if err := t.validate(len(info.FeatureColumns)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &GradientBoosting{info: info, params: p}, nil
}

func (m *GradientBoosting) Info() domain.ModelInfo { return m.info }

func (m *GradientBoosting) Predict(_ context.Context, x []float64) (float64, error) {
	if err := checkWidth(m.info, x); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range m.params.Trees {
		sum += t.eval(x)
	}
	return m.params.Init + m.params.LearningRate*sum, nil
}
