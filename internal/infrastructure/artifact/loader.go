package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/ml"
)

// schemaFile is the on-disk layout of the column schema.
type schemaFile struct {
	NumericalCols   []string `yaml:"numerical_cols"`
	CategoricalCols []string `yaml:"categorical_cols"`
}

// Artifacts is everything loaded at startup.
type Artifacts struct {
	Schema   *model.FeatureSchema
	Pipeline *ml.Pipeline
}

// Loader reads the schema and model bundle from a Source.
type Loader struct {
	source Source
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(source Source, logger *slog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load reads both artifacts. Every failure is a *model.SchemaLoadError.
func (l *Loader) Load(ctx context.Context, schemaURI, bundleURI string) (*Artifacts, error) {
	schema, err := l.LoadSchema(ctx, schemaURI)
	if err != nil {
		return nil, err
	}
	pipeline, err := l.LoadPipeline(ctx, schema, bundleURI)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Schema: schema, Pipeline: pipeline}, nil
}

// LoadSchema reads and validates the YAML column schema.
func (l *Loader) LoadSchema(ctx context.Context, uri string) (*model.FeatureSchema, error) {
	fail := func(err error) error {
		return &model.SchemaLoadError{Artifact: "feature schema", Source: uri, Err: err}
	}

	rc, err := l.source.Open(ctx, uri)
	if err != nil {
		return nil, fail(err)
	}
	defer rc.Close()

	var f schemaFile
	dec := yaml.NewDecoder(rc)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty document")
		}
		return nil, fail(fmt.Errorf("decode schema: %w", err))
	}

	schema, err := model.NewFeatureSchema(f.NumericalCols, f.CategoricalCols)
	if err != nil {
		return nil, fail(err)
	}

	l.logger.Info("feature schema loaded",
		"source", uri,
		"numerical", len(f.NumericalCols),
		"categorical", len(f.CategoricalCols),
	)
	return schema, nil
}

// LoadPipeline reads the JSON model bundle and checks it against schema.
func (l *Loader) LoadPipeline(ctx context.Context, schema *model.FeatureSchema, uri string) (*ml.Pipeline, error) {
	fail := func(err error) error {
		return &model.SchemaLoadError{Artifact: "model bundle", Source: uri, Err: err}
	}

	rc, err := l.source.Open(ctx, uri)
	if err != nil {
		return nil, fail(err)
	}
	defer rc.Close()

	bundle, err := ml.DecodeBundle(rc)
	if err != nil {
		return nil, fail(err)
	}
	pipeline, err := ml.NewPipeline(schema, bundle)
	if err != nil {
		return nil, fail(err)
	}

	l.logger.Info("model bundle loaded",
		"source", uri,
		"version", pipeline.Version(),
		"classifier", bundle.Model.Type,
		"features", len(pipeline.FeatureNames()),
	)
	return pipeline, nil
}
