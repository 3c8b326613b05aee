package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/telemetry"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sum(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPrediction(ctx, "rest", valueobject.NewPredictionOutcome(valueobject.LabelChurn, 0.2, 0.8), 3*time.Millisecond)
	m.RecordPrediction(ctx, "grpc", valueobject.FallbackOutcome(valueobject.StageInfer), time.Millisecond)
	m.RecordSideEffectFailure(ctx, "save")

	got := collect(t, reader)

	assert.Equal(t, int64(2), sum(t, got["churn_predictions"]))
	assert.Equal(t, int64(1), sum(t, got["churn_fallbacks"]))
	assert.Equal(t, int64(1), sum(t, got["churn_side_effect_failures"]))

	prob, ok := got["churn_probability"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, prob.DataPoints, 1)
	assert.Equal(t, uint64(1), prob.DataPoints[0].Count)

	latency, ok := got["churn_prediction_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range latency.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}
