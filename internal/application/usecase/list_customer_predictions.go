package usecase

import (
	"context"
	"fmt"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/port"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ListCustomerPredictions is the use case for a customer's prediction history.
type ListCustomerPredictions struct {
	repo port.PredictionRepository
}

// NewListCustomerPredictions creates a new ListCustomerPredictions use case.
func NewListCustomerPredictions(repo port.PredictionRepository) *ListCustomerPredictions {
	return &ListCustomerPredictions{repo: repo}
}

// Execute lists the customer's predictions, newest first.
func (uc *ListCustomerPredictions) Execute(ctx context.Context, req dto.ListCustomerPredictionsRequest) (dto.ListCustomerPredictionsResponse, error) {
	if req.CustomerID == "" {
		return dto.ListCustomerPredictionsResponse{}, fmt.Errorf("customer ID is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	predictions, err := uc.repo.FindByCustomerID(ctx, req.CustomerID, limit, offset)
	if err != nil {
		return dto.ListCustomerPredictionsResponse{}, fmt.Errorf("failed to list predictions: %w", err)
	}

	resp := dto.ListCustomerPredictionsResponse{
		CustomerID:  req.CustomerID,
		Predictions: make([]dto.PredictionResponse, 0, len(predictions)),
	}
	for _, p := range predictions {
		resp.Predictions = append(resp.Predictions, dto.FromModel(p))
	}
	return resp, nil
}
