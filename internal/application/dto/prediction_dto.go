package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/model"
	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/internal/domain/valueobject"
)

// PredictChurnRequest is the input DTO for the PredictChurn use case.
type PredictChurnRequest struct {
	Features   map[string]any `json:"features"`
	CustomerID string         `json:"customer_id,omitempty"`
	Source     string         `json:"-"`
}

// PredictionResponse is the output DTO for every prediction. Its first four
// fields are the public inference response.
type PredictionResponse struct {
	Prediction       string    `json:"prediction"`
	ChurnProbability string    `json:"churn_probability"`
	Confidence       string    `json:"confidence"`
	RiskLevel        string    `json:"risk_level"`
	Recommendations  []string  `json:"recommendations"`
	Fallback         bool      `json:"fallback"`
	FallbackStage    string    `json:"fallback_stage,omitempty"`
	ID               uuid.UUID `json:"id"`
	CustomerID       string    `json:"customer_id,omitempty"`
	ModelVersion     string    `json:"model_version"`
	CreatedAt        time.Time `json:"created_at"`

	// Raw values for callers that need numbers rather than display strings.
	ChurnProbabilityValue float64 `json:"churn_probability_value"`
	ConfidenceValue       float64 `json:"confidence_value"`
}

// GetPredictionRequest is the input DTO for retrieving a prediction.
type GetPredictionRequest struct {
	PredictionID uuid.UUID `json:"prediction_id"`
}

// ListCustomerPredictionsRequest is the input DTO for a customer's prediction history.
type ListCustomerPredictionsRequest struct {
	CustomerID string `json:"customer_id"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// ListCustomerPredictionsResponse wraps a customer's prediction history.
type ListCustomerPredictionsResponse struct {
	CustomerID  string               `json:"customer_id"`
	Predictions []PredictionResponse `json:"predictions"`
}

// SchemaColumn describes one input field.
type SchemaColumn struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Default any    `json:"default"`
}

// SchemaResponse describes the fields an inference request may carry.
type SchemaResponse struct {
	ModelVersion string         `json:"model_version"`
	Columns      []SchemaColumn `json:"columns"`
	FeatureNames []string       `json:"feature_names,omitempty"`
}

// FromOutcome maps an outcome to the response DTO without persistence fields.
func FromOutcome(o valueobject.PredictionOutcome) PredictionResponse {
	return PredictionResponse{
		Prediction:            o.Label.String(),
		ChurnProbability:      valueobject.FormatPercent(o.ChurnProbability),
		Confidence:            valueobject.FormatPercent(o.Confidence),
		RiskLevel:             o.Tier.String(),
		Recommendations:       o.Recommendations(),
		Fallback:              o.Fallback,
		FallbackStage:         string(o.FallbackStage),
		ChurnProbabilityValue: o.ChurnProbability,
		ConfidenceValue:       o.Confidence,
	}
}

// FromModel maps a domain model to the response DTO.
func FromModel(p *model.Prediction) PredictionResponse {
	resp := FromOutcome(p.Outcome())
	resp.ID = p.ID()
	resp.CustomerID = p.CustomerID()
	resp.ModelVersion = p.ModelVersion()
	resp.CreatedAt = p.CreatedAt()
	return resp
}

// FromSchema maps the schema to its response DTO.
func FromSchema(s *model.FeatureSchema, modelVersion string, featureNames []string) SchemaResponse {
	resp := SchemaResponse{ModelVersion: modelVersion, FeatureNames: featureNames}
	for _, name := range s.NumericalColumns() {
		resp.Columns = append(resp.Columns, SchemaColumn{Name: name, Kind: model.KindNumerical.String(), Default: model.DefaultNumerical})
	}
	for _, name := range s.CategoricalColumns() {
		resp.Columns = append(resp.Columns, SchemaColumn{Name: name, Kind: model.KindCategorical.String(), Default: model.MissingCategory})
	}
	return resp
}
