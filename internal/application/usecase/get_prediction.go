package usecase

import (
	"context"
	"fmt"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
)

// GetPrediction is the use case for retrieving a recorded prediction.
type GetPrediction struct {
	repo port.PredictionRepository
}

// NewGetPrediction creates a new GetPrediction use case.
func NewGetPrediction(repo port.PredictionRepository) *GetPrediction {
	return &GetPrediction{repo: repo}
}

// Execute retrieves a prediction by ID.
func (uc *GetPrediction) Execute(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionResponse, error) {
	prediction, err := uc.repo.FindByID(ctx, req.PredictionID)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("failed to find prediction: %w", err)
	}

	return dto.FromModel(prediction), nil
}
