package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/infrastructure/kafka"
	pkgkafka "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/kafka"
)

type mockPredictor struct {
	ExecuteFunc func(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error)
	requests    []dto.PredictChurnRequest
}

func (m *mockPredictor) Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error) {
	m.requests = append(m.requests, req)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, req)
	}
	return dto.PredictionResponse{ID: uuid.New(), RiskLevel: "low"}, nil
}

func TestScoringHandler(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		value      string
		wantErr    bool
		wantCustID string
	}{
		{
			name:       "customer from body",
			value:      `{"customer_id":"CUST-7","features":{"Tenure":4,"Gender":"Male"}}`,
			wantCustID: "CUST-7",
		},
		{
			name:       "customer from message key",
			key:        "CUST-8",
			value:      `{"features":{"Tenure":4}}`,
			wantCustID: "CUST-8",
		},
		{
			name:    "malformed json",
			value:   `{"features":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &mockPredictor{}
			h := kafka.NewScoringHandler(predictor, discardLogger())

			err := h.Handle(context.Background(), pkgkafka.Message{Key: []byte(tt.key), Value: []byte(tt.value)})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, predictor.requests)
				return
			}

			require.NoError(t, err)
			require.Len(t, predictor.requests, 1)
			req := predictor.requests[0]
			assert.Equal(t, tt.wantCustID, req.CustomerID)
			assert.Equal(t, model.SourceKafka, req.Source)
			assert.Equal(t, json.Number("4"), req.Features["Tenure"])
		})
	}
}

func TestScoringHandler_PredictorError(t *testing.T) {
	predictor := &mockPredictor{ExecuteFunc: func(context.Context, dto.PredictChurnRequest) (dto.PredictionResponse, error) {
		return dto.PredictionResponse{}, errors.New("invalid prediction")
	}}
	h := kafka.NewScoringHandler(predictor, discardLogger())

	err := h.Handle(context.Background(), pkgkafka.Message{Value: []byte(`{"customer_id":"c","features":{}}`)})
	assert.Error(t, err)
}
