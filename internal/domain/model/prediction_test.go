package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/event"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
)

func eventTypes(p *model.Prediction) []string {
	var types []string
	for _, e := range p.DomainEvents() {
		types = append(types, e.EventType())
	}
	return types
}

func TestNewPrediction(t *testing.T) {
	t.Run("low risk emits only completion", func(t *testing.T) {
		outcome := valueobject.NewPredictionOutcome(valueobject.LabelStay, 0.9, 0.1)
		p, err := model.NewPrediction("cust-1", model.SourceREST, "v1", outcome, map[string]any{"Tenure": 4.0})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, p.ID())
		assert.Equal(t, "cust-1", p.CustomerID())
		assert.Equal(t, model.SourceREST, p.Source())
		assert.Equal(t, "v1", p.ModelVersion())
		assert.Equal(t, 4.0, p.Features()["Tenure"])
		assert.Equal(t, []string{event.EventTypePredictionCompleted}, eventTypes(p))
	})

	t.Run("high risk emits high risk detection", func(t *testing.T) {
		outcome := valueobject.NewPredictionOutcome(valueobject.LabelChurn, 0.1, 0.9)
		p, err := model.NewPrediction("", model.SourceKafka, "v1", outcome, nil)
		require.NoError(t, err)

		evts := p.DomainEvents()
		require.Len(t, evts, 2)
		high, ok := evts[1].(event.HighChurnRiskDetected)
		require.True(t, ok)
		assert.Equal(t, p.ID(), high.AggregateID())
		assert.Len(t, high.Recommendations, 3)
	})

	t.Run("fallback emits degradation instead of high risk", func(t *testing.T) {
		outcome := valueobject.FallbackOutcome(valueobject.StageInfer)
		p, err := model.NewPrediction("cust-2", model.SourceGRPC, "v1", outcome, nil)
		require.NoError(t, err)

		evts := p.DomainEvents()
		require.Len(t, evts, 2)
		degraded, ok := evts[1].(event.PredictionDegraded)
		require.True(t, ok)
		assert.Equal(t, "infer", degraded.Stage)
		assert.Nil(t, p.Features())
	})

	t.Run("domain events are drained once", func(t *testing.T) {
		outcome := valueobject.NewPredictionOutcome(valueobject.LabelStay, 0.6, 0.4)
		p, err := model.NewPrediction("", model.SourceConsole, "v1", outcome, nil)
		require.NoError(t, err)

		assert.Len(t, p.DomainEvents(), 1)
		assert.Empty(t, p.DomainEvents())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		good := valueobject.NewPredictionOutcome(valueobject.LabelStay, 0.6, 0.4)

		_, err := model.NewPrediction("", "", "v1", good, nil)
		assert.Error(t, err)

		_, err = model.NewPrediction("", model.SourceREST, "v1", valueobject.PredictionOutcome{}, nil)
		assert.Error(t, err)

		bad := good
		bad.ChurnProbability = 1.5
		_, err = model.NewPrediction("", model.SourceREST, "v1", bad, nil)
		assert.Error(t, err)
	})
}

func TestReconstructPrediction(t *testing.T) {
	id := uuid.New()
	createdAt := time.Now().UTC().Add(-time.Hour)
	outcome := valueobject.NewPredictionOutcome(valueobject.LabelChurn, 0.2, 0.8)

	p := model.ReconstructPrediction(id, "cust-3", model.SourceForm, "v2", outcome, nil, createdAt)

	assert.Equal(t, id, p.ID())
	assert.Equal(t, createdAt, p.CreatedAt())
	assert.True(t, valueobject.RiskTierHigh.Equal(p.Outcome().Tier))
	assert.Empty(t, p.DomainEvents())
}
