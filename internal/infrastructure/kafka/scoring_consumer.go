package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/application/dto"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	pkgkafka "github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/kafka"
)

// Predictor scores one request. Satisfied by *usecase.PredictChurn.
type Predictor interface {
	Execute(ctx context.Context, req dto.PredictChurnRequest) (dto.PredictionResponse, error)
}

// scoringMessage is the wire form of a scoring request.
type scoringMessage struct {
	CustomerID string         `json:"customer_id"`
	Features   map[string]any `json:"features"`
}

// ScoringHandler turns scoring-topic messages into predictions. The outcome
// reaches downstream systems through the published domain events.
type ScoringHandler struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewScoringHandler creates a new ScoringHandler.
func NewScoringHandler(predictor Predictor, logger *slog.Logger) *ScoringHandler {
	return &ScoringHandler{predictor: predictor, logger: logger}
}

// Handle is a pkg/kafka.Handler. Only undecodable messages return an error;
// scoring itself always produces an outcome.
func (h *ScoringHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var in scoringMessage
	dec := json.NewDecoder(bytes.NewReader(msg.Value))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("failed to decode scoring message: %w", err)
	}
	if in.CustomerID == "" {
		in.CustomerID = string(msg.Key)
	}

	resp, err := h.predictor.Execute(ctx, dto.PredictChurnRequest{
		CustomerID: in.CustomerID,
		Features:   in.Features,
		Source:     model.SourceKafka,
	})
	if err != nil {
		return fmt.Errorf("failed to score customer %q: %w", in.CustomerID, err)
	}

	h.logger.InfoContext(ctx, "scored customer from kafka",
		"customer_id", in.CustomerID,
		"prediction_id", resp.ID,
		"risk_level", resp.RiskLevel,
		"fallback", resp.Fallback,
	)
	return nil
}
