package ml

import (
	"fmt"
	"math"
)

// Classifier produces class probabilities [stay, churn] for a feature vector.
type Classifier interface {
	PredictProba(x []float64) ([]float64, error)
	Width() int
}

// NewClassifier builds the classifier described by spec for vectors of the given width.
func NewClassifier(spec ClassifierSpec, width int) (Classifier, error) {
	switch spec.Type {
	case TypeLogisticRegression:
		return newLogisticRegression(spec, width)
	case TypeDecisionTree, TypeRandomForest:
		return newTreeEnsemble(spec, width)
	default:
		return nil, fmt.Errorf("unsupported classifier type %q", spec.Type)
	}
}

// LogisticRegression is a fitted binary logistic regression.
type LogisticRegression struct {
	coef      []float64
	intercept float64
}

func newLogisticRegression(spec ClassifierSpec, width int) (*LogisticRegression, error) {
	if len(spec.Coef) != width {
		return nil, fmt.Errorf("logistic regression has %d coefficients, preprocessor produces %d features",
			len(spec.Coef), width)
	}
	return &LogisticRegression{
		coef:      append([]float64(nil), spec.Coef...),
		intercept: spec.Intercept,
	}, nil
}

func (m *LogisticRegression) Width() int { return len(m.coef) }

// PredictProba applies the logistic function to the linear decision value.
func (m *LogisticRegression) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.coef) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.coef), len(x))
	}
	z := m.intercept
	for i, w := range m.coef {
		z += w * x[i]
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

type treeNode struct {
	feature     int
	threshold   float64
	left, right int
	proba       [2]float64
}

// TreeEnsemble averages the leaf distributions of one or more decision trees.
type TreeEnsemble struct {
	trees [][]treeNode
	width int
}

func newTreeEnsemble(spec ClassifierSpec, width int) (*TreeEnsemble, error) {
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("%s has no trees", spec.Type)
	}
	if spec.Type == TypeDecisionTree && len(spec.Trees) != 1 {
		return nil, fmt.Errorf("decision tree must have exactly one tree, got %d", len(spec.Trees))
	}

	e := &TreeEnsemble{width: width}
	for t, tree := range spec.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", t)
		}
		nodes := make([]treeNode, len(tree.Nodes))
		for i, n := range tree.Nodes {
			node := treeNode{feature: n.Feature, threshold: n.Threshold, left: n.Left, right: n.Right}
			if n.Left == -1 {
				if len(n.Value) != 2 {
					return nil, fmt.Errorf("tree %d leaf %d has %d class values", t, i, len(n.Value))
				}
				total := n.Value[0] + n.Value[1]
				if n.Value[0] < 0 || n.Value[1] < 0 || total <= 0 {
					return nil, fmt.Errorf("tree %d leaf %d has invalid class values %v", t, i, n.Value)
				}
				node.proba = [2]float64{n.Value[0] / total, n.Value[1] / total}
			} else {
				if n.Feature < 0 || n.Feature >= width {
					return nil, fmt.Errorf("tree %d node %d splits on feature %d of %d", t, i, n.Feature, width)
				}
				if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
					return nil, fmt.Errorf("tree %d node %d has invalid children %d, %d", t, i, n.Left, n.Right)
				}
			}
			nodes[i] = node
		}
		e.trees = append(e.trees, nodes)
	}
	return e, nil
}

func (e *TreeEnsemble) Width() int { return e.width }

// PredictProba walks each tree (x <= threshold goes left) and averages the leaves.
func (e *TreeEnsemble) PredictProba(x []float64) ([]float64, error) {
	if len(x) != e.width {
		return nil, fmt.Errorf("expected %d features, got %d", e.width, len(x))
	}
	var sum [2]float64
	for _, nodes := range e.trees {
		i := 0
		for nodes[i].left != -1 {
			if x[nodes[i].feature] <= nodes[i].threshold {
				i = nodes[i].left
			} else {
				i = nodes[i].right
			}
		}
		sum[0] += nodes[i].proba[0]
		sum[1] += nodes[i].proba[1]
	}
	n := float64(len(e.trees))
	return []float64{sum[0] / n, sum[1] / n}, nil
}
