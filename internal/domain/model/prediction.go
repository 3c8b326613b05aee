package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/event"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/events"
)

// Sources a prediction request can arrive from.
const (
	SourceREST    = "rest"
	SourceForm    = "form"
	SourceGRPC    = "grpc"
	SourceKafka   = "kafka"
	SourceConsole = "console"
)

// Prediction is the aggregate root recording one answered inference request.
type Prediction struct {
	events.EventCollector

	createdAt    time.Time
	features     map[string]any
	outcome      valueobject.PredictionOutcome
	customerID   string
	source       string
	modelVersion string
	id           uuid.UUID
}

// NewPrediction records an outcome. features is the reconciled record that
// was scored and may be nil when reconciliation itself failed.
func NewPrediction(
	customerID string,
	source string,
	modelVersion string,
	outcome valueobject.PredictionOutcome,
	features map[string]any,
) (*Prediction, error) {
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if outcome.Tier.IsZero() {
		return nil, fmt.Errorf("risk tier is required")
	}
	if outcome.ChurnProbability < 0 || outcome.ChurnProbability > 1 {
		return nil, fmt.Errorf("churn probability must be between 0 and 1, got %v", outcome.ChurnProbability)
	}
	if outcome.Confidence < 0 || outcome.Confidence > 1 {
		return nil, fmt.Errorf("confidence must be between 0 and 1, got %v", outcome.Confidence)
	}

	p := &Prediction{
		id:           uuid.New(),
		customerID:   customerID,
		source:       source,
		modelVersion: modelVersion,
		outcome:      outcome,
		features:     features,
		createdAt:    time.Now().UTC(),
	}
	p.recordEvents()
	return p, nil
}

func (p *Prediction) recordEvents() {
	completed := event.NewPredictionCompleted(p.id)
	completed.CustomerID = p.customerID
	completed.Source = p.source
	completed.Prediction = p.outcome.Label.String()
	completed.ChurnProbability = p.outcome.ChurnProbability
	completed.Confidence = p.outcome.Confidence
	completed.RiskLevel = p.outcome.Tier.String()
	completed.Fallback = p.outcome.Fallback
	completed.ModelVersion = p.modelVersion
	completed.PredictedAt = p.createdAt
	p.Record(completed)

	if p.outcome.Fallback {
		degraded := event.NewPredictionDegraded(p.id)
		degraded.CustomerID = p.customerID
		degraded.Stage = string(p.outcome.FallbackStage)
		degraded.ModelVersion = p.modelVersion
		degraded.DegradedAt = p.createdAt
		p.Record(degraded)
		return
	}

	if p.outcome.Tier.Equal(valueobject.RiskTierHigh) {
		high := event.NewHighChurnRiskDetected(p.id)
		high.CustomerID = p.customerID
		high.ChurnProbability = p.outcome.ChurnProbability
		high.Recommendations = p.outcome.Recommendations()
		high.DetectedAt = p.createdAt
		p.Record(high)
	}
}

// ReconstructPrediction rebuilds a Prediction from persisted data (no validation, no events).
func ReconstructPrediction(
	id uuid.UUID,
	customerID, source, modelVersion string,
	outcome valueobject.PredictionOutcome,
	features map[string]any,
	createdAt time.Time,
) *Prediction {
	return &Prediction{
		id:           id,
		customerID:   customerID,
		source:       source,
		modelVersion: modelVersion,
		outcome:      outcome,
		features:     features,
		createdAt:    createdAt,
	}
}

// --- Accessors ---

func (p *Prediction) ID() uuid.UUID                          { return p.id }
func (p *Prediction) CustomerID() string                     { return p.customerID }
func (p *Prediction) Source() string                         { return p.source }
func (p *Prediction) ModelVersion() string                   { return p.modelVersion }
func (p *Prediction) Outcome() valueobject.PredictionOutcome { return p.outcome }
func (p *Prediction) CreatedAt() time.Time                   { return p.createdAt }

// Features returns a copy of the scored feature snapshot.
func (p *Prediction) Features() map[string]any {
	if p.features == nil {
		return nil
	}
	out := make(map[string]any, len(p.features))
	for k, v := range p.features {
		out[k] = v
	}
	return out
}

// DomainEvents returns all accumulated domain events and clears them.
func (p *Prediction) DomainEvents() []events.DomainEvent {
	return p.Drain()
}
