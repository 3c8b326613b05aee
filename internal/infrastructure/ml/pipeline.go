package ml

import (
	"context"
	"fmt"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

// Pipeline implements port.ChurnModel with a fitted preprocessor and
// classifier evaluated in process. It is immutable and safe for concurrent use.
type Pipeline struct {
	preprocessor *Preprocessor
	classifier   Classifier
	version      string
}

// NewPipeline builds a pipeline from a bundle, checking that the bundle
// fits the schema and that the classifier accepts the preprocessor output.
func NewPipeline(schema *model.FeatureSchema, bundle Bundle) (*Pipeline, error) {
	pre, err := NewPreprocessor(schema, bundle.Preprocessor)
	if err != nil {
		return nil, fmt.Errorf("build preprocessor: %w", err)
	}
	clf, err := NewClassifier(bundle.Model, pre.Width())
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	version := bundle.Version
	if version == "" {
		version = "unversioned"
	}
	return &Pipeline{preprocessor: pre, classifier: clf, version: version}, nil
}

// Transform applies the preprocessing transform.
func (p *Pipeline) Transform(ctx context.Context, record model.ReconciledRecord) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.preprocessor.Transform(record)
}

// Infer returns the label and class probabilities for a transformed vector.
func (p *Pipeline) Infer(ctx context.Context, features []float64) (int, []float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	probs, err := p.classifier.PredictProba(features)
	if err != nil {
		return 0, nil, err
	}
	label := 0
	if probs[1] > probs[0] {
		label = 1
	}
	return label, probs, nil
}

// Version identifies the loaded bundle.
func (p *Pipeline) Version() string {
	return p.version
}

// FeatureNames names each transformed feature, e.g. "cat__Gender_Male".
func (p *Pipeline) FeatureNames() []string {
	return p.preprocessor.FeatureNames()
}

// Categories maps each categorical column to the categories the encoder was fitted on.
func (p *Pipeline) Categories() map[string][]string {
	return p.preprocessor.Categories()
}
