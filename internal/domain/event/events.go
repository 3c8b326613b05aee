package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

const (
	// AggregateTypePrediction is the aggregate type of every churn event.
	AggregateTypePrediction = "Prediction"

	// EventTypePredictionCompleted is emitted for every answered request.
	EventTypePredictionCompleted = "churn.prediction.completed"

	// EventTypeHighRiskDetected is emitted when a real prediction lands in the high tier.
	EventTypeHighRiskDetected = "churn.high_risk.detected"

	// EventTypePredictionDegraded is emitted when the fallback outcome was returned.
	EventTypePredictionDegraded = "churn.prediction.degraded"
)

// PredictionCompleted is published whenever a prediction is returned to a caller.
type PredictionCompleted struct {
	events.BaseEvent
	PredictionID     uuid.UUID `json:"prediction_id"`
	CustomerID       string    `json:"customer_id,omitempty"`
	Source           string    `json:"source"`
	Prediction       string    `json:"prediction"`
	ChurnProbability float64   `json:"churn_probability"`
	Confidence       float64   `json:"confidence"`
	RiskLevel        string    `json:"risk_level"`
	Fallback         bool      `json:"fallback"`
	ModelVersion     string    `json:"model_version"`
	PredictedAt      time.Time `json:"predicted_at"`
}

// NewPredictionCompleted creates a PredictionCompleted event.
func NewPredictionCompleted(predictionID uuid.UUID) PredictionCompleted {
	return PredictionCompleted{
		BaseEvent:    events.NewBaseEvent(EventTypePredictionCompleted, predictionID, AggregateTypePrediction),
		PredictionID: predictionID,
	}
}

// HighChurnRiskDetected is published when a customer is predicted to be at
// high risk of churning, so retention campaigns can pick them up.
type HighChurnRiskDetected struct {
	events.BaseEvent
	PredictionID     uuid.UUID `json:"prediction_id"`
	CustomerID       string    `json:"customer_id,omitempty"`
	ChurnProbability float64   `json:"churn_probability"`
	Recommendations  []string  `json:"recommendations"`
	DetectedAt       time.Time `json:"detected_at"`
}

// NewHighChurnRiskDetected creates a HighChurnRiskDetected event.
func NewHighChurnRiskDetected(predictionID uuid.UUID) HighChurnRiskDetected {
	return HighChurnRiskDetected{
		BaseEvent:    events.NewBaseEvent(EventTypeHighRiskDetected, predictionID, AggregateTypePrediction),
		PredictionID: predictionID,
	}
}

// PredictionDegraded is published when the fallback outcome was served.
type PredictionDegraded struct {
	events.BaseEvent
	PredictionID uuid.UUID `json:"prediction_id"`
	CustomerID   string    `json:"customer_id,omitempty"`
	Stage        string    `json:"stage"`
	ModelVersion string    `json:"model_version"`
	DegradedAt   time.Time `json:"degraded_at"`
}

// NewPredictionDegraded creates a PredictionDegraded event.
func NewPredictionDegraded(predictionID uuid.UUID) PredictionDegraded {
	return PredictionDegraded{
		BaseEvent:    events.NewBaseEvent(EventTypePredictionDegraded, predictionID, AggregateTypePrediction),
		PredictionID: predictionID,
	}
}
