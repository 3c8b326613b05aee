package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
)

// Predictor is satisfied by *usecase.PredictChurn.
type Predictor interface {
	Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error)
}

// PredictionGetter is satisfied by *usecase.GetPrediction.
type PredictionGetter interface {
	Execute(ctx context.Context, req dto.GetPredictionRequest) (dto.PredictionResponse, error)
}

// PredictionLister is satisfied by *usecase.ListCustomerPredictions.
type PredictionLister interface {
	Execute(ctx context.Context, req dto.ListCustomerPredictionsRequest) (dto.ListCustomerPredictionsResponse, error)
}

// ChurnHandler implements the gRPC churn service handler.
type ChurnHandler struct {
	UnimplementedChurnServiceServer
	predict Predictor
	get     PredictionGetter
	list    PredictionLister
	logger  *slog.Logger
}

// NewChurnHandler creates a new gRPC churn handler.
func NewChurnHandler(predict Predictor, get PredictionGetter, list PredictionLister, logger *slog.Logger) *ChurnHandler {
	return &ChurnHandler{
		predict: predict,
		get:     get,
		list:    list,
		logger:  logger,
	}
}

// PredictRequest represents the gRPC request for scoring a customer.
type PredictRequest struct {
	CustomerID string         `json:"customer_id,omitempty"`
	Features   map[string]any `json:"features"`
}

// PredictionReply represents one prediction on the wire.
type PredictionReply struct {
	PredictionID     string   `json:"prediction_id"`
	CustomerID       string   `json:"customer_id,omitempty"`
	Prediction       string   `json:"prediction"`
	ChurnProbability string   `json:"churn_probability"`
	Confidence       string   `json:"confidence"`
	RiskLevel        string   `json:"risk_level"`
	Recommendations  []string `json:"recommendations"`
	Fallback         bool     `json:"fallback"`
	FallbackStage    string   `json:"fallback_stage,omitempty"`
	ModelVersion     string   `json:"model_version"`
	CreatedAt        string   `json:"created_at"`
}

// GetPredictionRequest represents the gRPC request for a recorded prediction.
type GetPredictionRequest struct {
	PredictionID string `json:"prediction_id"`
}

// ListCustomerPredictionsRequest represents the gRPC request for a customer's history.
type ListCustomerPredictionsRequest struct {
	CustomerID string `json:"customer_id"`
	Limit      int32  `json:"limit"`
	Offset     int32  `json:"offset"`
}

// ListCustomerPredictionsReply represents the gRPC response for a customer's history.
type ListCustomerPredictionsReply struct {
	CustomerID  string             `json:"customer_id"`
	Predictions []*PredictionReply `json:"predictions"`
}

// Predict handles the gRPC Predict request. Scoring never fails the call:
// unusable input yields the fallback prediction.
func (h *ChurnHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictionReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	resp, err := h.predict.Execute(ctx, dto.PredictChurnRequest{
		CustomerID: req.CustomerID,
		Features:   req.Features,
		Source:     model.SourceGRPC,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "grpc prediction failed", "error", err)
		return nil, status.Error(codes.Internal, "prediction failed")
	}
	return toReply(resp), nil
}

// GetPrediction handles the gRPC GetPrediction request.
func (h *ChurnHandler) GetPrediction(ctx context.Context, req *GetPredictionRequest) (*PredictionReply, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.PredictionID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid prediction_id: %v", err)
	}

	resp, err := h.get.Execute(ctx, dto.GetPredictionRequest{PredictionID: id})
	if err != nil {
		return nil, toStatus(err)
	}
	return toReply(resp), nil
}

// ListCustomerPredictions handles the gRPC ListCustomerPredictions request.
func (h *ChurnHandler) ListCustomerPredictions(ctx context.Context, req *ListCustomerPredictionsRequest) (*ListCustomerPredictionsReply, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}

	resp, err := h.list.Execute(ctx, dto.ListCustomerPredictionsRequest{
		CustomerID: req.CustomerID,
		Limit:      int(req.Limit),
		Offset:     int(req.Offset),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	reply := &ListCustomerPredictionsReply{
		CustomerID:  resp.CustomerID,
		Predictions: make([]*PredictionReply, 0, len(resp.Predictions)),
	}
	for _, p := range resp.Predictions {
		reply.Predictions = append(reply.Predictions, toReply(p))
	}
	return reply, nil
}

func toReply(resp dto.PredictionResponse) *PredictionReply {
	reply := &PredictionReply{
		CustomerID:       resp.CustomerID,
		Prediction:       resp.Prediction,
		ChurnProbability: resp.ChurnProbability,
		Confidence:       resp.Confidence,
		RiskLevel:        resp.RiskLevel,
		Recommendations:  resp.Recommendations,
		Fallback:         resp.Fallback,
		FallbackStage:    resp.FallbackStage,
		ModelVersion:     resp.ModelVersion,
	}
	if resp.ID != uuid.Nil {
		reply.PredictionID = resp.ID.String()
	}
	if !resp.CreatedAt.IsZero() {
		reply.CreatedAt = resp.CreatedAt.Format(time.RFC3339Nano)
	}
	return reply
}

func toStatus(err error) error {
	if errors.Is(err, model.ErrPredictionNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
