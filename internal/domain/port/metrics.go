package port

import (
	"context"
	"time"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
)

// PredictionMetrics records serving telemetry.
type PredictionMetrics interface {
	RecordPrediction(ctx context.Context, source string, outcome valueobject.PredictionOutcome, elapsed time.Duration)
	RecordSideEffectFailure(ctx context.Context, operation string)
}
