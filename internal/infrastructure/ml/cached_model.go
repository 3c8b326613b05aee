package ml

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
)

type inference struct {
	label int
	probs []float64
}

// CachedModel memoizes a ChurnModel's successful results in bounded LRU
// caches. Errors are never cached.
type CachedModel struct {
	next    port.ChurnModel
	vectors *lru.Cache[string, []float64]
	results *lru.Cache[string, inference]
}

// NewCachedModel wraps next with caches holding up to size entries each.
func NewCachedModel(next port.ChurnModel, size int) (*CachedModel, error) {
	vectors, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("create transform cache: %w", err)
	}
	results, err := lru.New[string, inference](size)
	if err != nil {
		return nil, fmt.Errorf("create inference cache: %w", err)
	}
	return &CachedModel{next: next, vectors: vectors, results: results}, nil
}

func (c *CachedModel) Transform(ctx context.Context, record model.ReconciledRecord) ([]float64, error) {
	key := record.Key()
	if v, ok := c.vectors.Get(key); ok {
		return append([]float64(nil), v...), nil
	}
	v, err := c.next.Transform(ctx, record)
	if err != nil {
		return nil, err
	}
	c.vectors.Add(key, append([]float64(nil), v...))
	return v, nil
}

func (c *CachedModel) Infer(ctx context.Context, features []float64) (int, []float64, error) {
	key := vectorKey(features)
	if r, ok := c.results.Get(key); ok {
		return r.label, append([]float64(nil), r.probs...), nil
	}
	label, probs, err := c.next.Infer(ctx, features)
	if err != nil {
		return 0, nil, err
	}
	c.results.Add(key, inference{label: label, probs: append([]float64(nil), probs...)})
	return label, probs, nil
}

func (c *CachedModel) Version() string {
	return c.next.Version()
}

// FeatureNames passes through to the wrapped model when it names its features.
func (c *CachedModel) FeatureNames() []string {
	if named, ok := c.next.(interface{ FeatureNames() []string }); ok {
		return named.FeatureNames()
	}
	return nil
}

// Len reports the number of cached transform and inference entries.
func (c *CachedModel) Len() (vectors, results int) {
	return c.vectors.Len(), c.results.Len()
}

func vectorKey(features []float64) string {
	var b strings.Builder
	for i, f := range features {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return b.String()
}
