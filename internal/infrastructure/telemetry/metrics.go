package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
)

const meterName = "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment"

// Metrics implements port.PredictionMetrics with OpenTelemetry instruments.
type Metrics struct {
	predictions      metric.Int64Counter
	fallbacks        metric.Int64Counter
	latency          metric.Float64Histogram
	probability      metric.Float64Histogram
	sideEffectErrors metric.Int64Counter
}

// NewMetrics registers the churn instruments on provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	predictions, err := meter.Int64Counter("churn_predictions",
		metric.WithDescription("Predictions served, by source, risk level and label."))
	if err != nil {
		return nil, fmt.Errorf("failed to create predictions counter: %w", err)
	}
	fallbacks, err := meter.Int64Counter("churn_fallbacks",
		metric.WithDescription("Fallback outcomes served, by failing stage."))
	if err != nil {
		return nil, fmt.Errorf("failed to create fallbacks counter: %w", err)
	}
	latency, err := meter.Float64Histogram("churn_prediction_duration_seconds",
		metric.WithDescription("Time spent reconciling and scoring one record."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5))
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}
	probability, err := meter.Float64Histogram("churn_probability",
		metric.WithDescription("Distribution of predicted churn probabilities, excluding fallbacks."),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9))
	if err != nil {
		return nil, fmt.Errorf("failed to create probability histogram: %w", err)
	}
	sideEffectErrors, err := meter.Int64Counter("churn_side_effect_failures",
		metric.WithDescription("Failed persistence or publishing after a prediction, by operation."))
	if err != nil {
		return nil, fmt.Errorf("failed to create side effect counter: %w", err)
	}

	return &Metrics{
		predictions:      predictions,
		fallbacks:        fallbacks,
		latency:          latency,
		probability:      probability,
		sideEffectErrors: sideEffectErrors,
	}, nil
}

// RecordPrediction records one served outcome.
func (m *Metrics) RecordPrediction(ctx context.Context, source string, outcome valueobject.PredictionOutcome, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("risk_level", outcome.Tier.String()),
		attribute.String("prediction", outcome.Label.String()),
		attribute.Bool("fallback", outcome.Fallback),
	)
	m.predictions.Add(ctx, 1, attrs)
	m.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("source", source)))

	if outcome.Fallback {
		m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", string(outcome.FallbackStage))))
		return
	}
	m.probability.Record(ctx, outcome.ChurnProbability)
}

// RecordSideEffectFailure counts a failed save or publish.
func (m *Metrics) RecordSideEffectFailure(ctx context.Context, operation string) {
	m.sideEffectErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
