package rest_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

type mockPredictor struct {
	requests []dto.PredictChurnRequest
	execFunc func(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error)
}

func (m *mockPredictor) Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error) {
	m.requests = append(m.requests, req)
	if m.execFunc != nil {
		return m.execFunc(ctx, req)
	}
	return dto.PredictionResponse{
		Prediction:       "STAY",
		ChurnProbability: "44.9%",
		Confidence:       "55.1%",
		RiskLevel:        "medium",
		Recommendations:  []string{"Send a satisfaction survey"},
		CustomerID:       req.CustomerID,
	}, nil
}

type mockGetter struct {
	execFunc func(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionResponse, error)
}

func (m *mockGetter) Execute(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionResponse, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, req)
	}
	return dto.PredictionResponse{}, model.ErrPredictionNotFound
}

type mockLister struct {
	last     dto.ListCustomerPredictionsRequest
	execFunc func(ctx context.Context, req dto.ListCustomerPredictionsRequest) (dto.ListCustomerPredictionsResponse, error)
}

func (m *mockLister) Execute(ctx context.Context, req dto.ListCustomerPredictionsRequest) (dto.ListCustomerPredictionsResponse, error) {
	m.last = req
	if m.execFunc != nil {
		return m.execFunc(ctx, req)
	}
	return dto.ListCustomerPredictionsResponse{CustomerID: req.CustomerID, Predictions: []dto.PredictionResponse{}}, nil
}

type stubDescriber struct{}

func (stubDescriber) Execute() dto.SchemaResponse {
	return dto.SchemaResponse{
		ModelVersion: "logreg-2024.05",
		Columns: []dto.SchemaColumn{
			{Name: "Tenure", Kind: "numerical", Default: 0.0},
			{Name: "HourSpendOnApp", Kind: "numerical", Default: 0.0},
			{Name: "Gender", Kind: "categorical", Default: "missing"},
			{Name: "PreferredPaymentMode", Kind: "categorical", Default: "missing"},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
